package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalUploader writes media under a directory served at baseURL (the /uploads
// static route). Used in development and tests.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir is the directory files are written to.
func (u *LocalUploader) Dir() string { return u.dir }

func (u *LocalUploader) Upload(ctx context.Context, folder string, file File) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := folder + "/" + uuid.New().String() + extensionOf(file.Filename)
	path, err := u.pathFor(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, file.Reader)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &UploadResult{Key: key, URL: u.baseURL + "/" + key, Size: n}, nil
}

// Delete is idempotent.
func (u *LocalUploader) Delete(_ context.Context, key string) error {
	path, err := u.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// pathFor keeps keys inside the upload directory.
func (u *LocalUploader) pathFor(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(u.dir, filepath.FromSlash(clean)), nil
}
