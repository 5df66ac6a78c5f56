package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewGeminiClient(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		BaseURL: srv.URL,
		Timeout: 500 * time.Millisecond,
	}), &calls
}

func TestModerateParsesLabel(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text
		fmt.Fprint(w, geminiReply(" hate.\n"))
	})

	verdict := client.Moderate(context.Background(), "you are awful")
	assert.Equal(t, VerdictHate, verdict)
	assert.True(t, verdict.Flagged())
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotPrompt, "you are awful")
	assert.Contains(t, gotPrompt, "SAFE, OFFENSIVE, HATE, SEXUAL, HARASSMENT")
}

func TestModerateFailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"unknown label", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, geminiReply("MAYBE")) }},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"candidates":[]}`) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "<html>") }},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
			fmt.Fprint(w, geminiReply("HATE"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			assert.Equal(t, VerdictSafe, client.Moderate(context.Background(), "hello"))
		})
	}
}

func TestModerateWithoutAPIKeyDoesNotCallOut(t *testing.T) {
	client := NewGeminiClient(config.GeminiConfig{BaseURL: "http://127.0.0.1:1"})
	assert.Equal(t, VerdictSafe, client.Moderate(context.Background(), "anything"))
	assert.Equal(t, []string{}, client.GenerateTags(context.Background(), "t", "c"))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 8; i++ {
		assert.Equal(t, VerdictSafe, client.Moderate(context.Background(), "x"))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(calls), "open breaker short-circuits the remaining calls")
}

func TestGenerateTags(t *testing.T) {
	var gotPrompt string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text
		fmt.Fprint(w, geminiReply("Poetry, nature , ,#Autumn, poetry, longing."))
	})

	tags := client.GenerateTags(context.Background(), "Leaves", "<p>The <b>leaves</b> fall</p>")
	assert.Equal(t, []string{"poetry", "nature", "autumn", "longing"}, tags)
	assert.Contains(t, gotPrompt, "Title: Leaves")
	assert.Contains(t, gotPrompt, "The leaves fall")
	assert.NotContains(t, gotPrompt, "<b>")
}

func TestGenerateTagsUntitledEmptyOnFailingGateway(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	tags := client.GenerateTags(context.Background(), "Untitled", "")
	require.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestParseVerdict(t *testing.T) {
	for reply, want := range map[string]Verdict{
		"SAFE":          VerdictSafe,
		"safe.":         VerdictSafe,
		" Harassment\n": VerdictHarassment,
		"**SEXUAL**":    VerdictSexual,
	} {
		v, ok := ParseVerdict(reply)
		assert.True(t, ok, reply)
		assert.Equal(t, want, v, reply)
	}
	_, ok := ParseVerdict("SAFE OFFENSIVE")
	assert.False(t, ok)
	_, ok = ParseVerdict("")
	assert.False(t, ok)
}

func TestParseTagsCapsCount(t *testing.T) {
	parts := make([]string, 15)
	for i := range parts {
		parts[i] = fmt.Sprintf("tag%d", i)
	}
	assert.Len(t, ParseTags(strings.Join(parts, ",")), maxTags)
	assert.Equal(t, []string{}, ParseTags(" , ,"))
}

func TestMockGateway(t *testing.T) {
	m := &MockGateway{Verdicts: map[string]Verdict{"idiot": VerdictOffensive}}
	assert.Equal(t, VerdictOffensive, m.Moderate(context.Background(), "you idiot"))
	assert.Equal(t, VerdictSafe, m.Moderate(context.Background(), "lovely"))
	assert.Len(t, m.Moderated, 2)
	assert.Equal(t, []string{}, m.GenerateTags(context.Background(), "", ""))
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash") {
			fmt.Fprint(w, `{"name":"models/gemini-1.5-flash"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, client.Ping(context.Background()))

	keyless := NewGeminiClient(config.GeminiConfig{Model: "m", BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, keyless.Ping(context.Background()))
}
