package moderation

import (
	"context"
	"strings"
	"sync"
)

// MockGateway returns canned answers. Verdicts maps a substring of the text to
// its verdict; everything else is SAFE.
type MockGateway struct {
	mu        sync.Mutex
	Verdicts  map[string]Verdict
	Tags      []string
	Moderated []string
}

func (m *MockGateway) Moderate(_ context.Context, text string) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Moderated = append(m.Moderated, text)
	for needle, v := range m.Verdicts {
		if strings.Contains(text, needle) {
			return v
		}
	}
	return VerdictSafe
}

func (m *MockGateway) GenerateTags(context.Context, string, string) []string {
	if m.Tags == nil {
		return []string{}
	}
	return append([]string(nil), m.Tags...)
}

var (
	_ Gateway = (*GeminiClient)(nil)
	_ Gateway = (*MockGateway)(nil)
)
