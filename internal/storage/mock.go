package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockUploader keeps uploads in memory. Set UploadErr or DeleteErr to simulate failures.
type MockUploader struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Deleted   []string
	UploadErr error
	DeleteErr error
	seq       int
}

func NewMockUploader() *MockUploader {
	return &MockUploader{Objects: make(map[string][]byte)}
}

func (m *MockUploader) Upload(_ context.Context, folder string, file File) (*UploadResult, error) {
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("%s/%d%s", folder, m.seq, extensionOf(file.Filename))
	m.Objects[key] = data
	return &UploadResult{Key: key, URL: "https://media.test/" + key, Size: int64(len(data))}, nil
}

func (m *MockUploader) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// Has reports whether key is currently stored.
func (m *MockUploader) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}
