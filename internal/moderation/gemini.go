package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/telemetry"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	moderationPrompt = `You are the moderator of an art and writing community. Classify the comment below.
Answer with exactly one word from this list: SAFE, OFFENSIVE, HATE, SEXUAL, HARASSMENT.

Comment:
%s`

	tagsPrompt = `Suggest 5 to 7 short tags for the piece of writing below.
Answer only with lowercase tags separated by commas, with no numbering and no other text.

Title: %s

Content:
%s`

	maxPromptContent = 8000
)

var errEmptyReply = errors.New("gemini returned no text")

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewGeminiClient builds a client from config. An empty API key yields a
// client that answers SAFE and no tags without calling out.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: telemetry.NewInstrumentedHTTPClient(timeout),
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "gemini",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Log.Warn("Circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// Moderate classifies text. Any failure is treated as SAFE.
func (g *GeminiClient) Moderate(ctx context.Context, text string) Verdict {
	if g.apiKey == "" {
		metrics.RecordModerationVerdict(string(VerdictSafe), true)
		return VerdictSafe
	}

	reply, err := g.generate(ctx, "moderate", fmt.Sprintf(moderationPrompt, util.Truncate(text, maxPromptContent)))
	if err != nil {
		logger.WarnWithFields("Moderation unavailable, accepting comment", err)
		metrics.RecordModerationVerdict(string(VerdictSafe), true)
		return VerdictSafe
	}

	verdict, ok := ParseVerdict(reply)
	if !ok {
		logger.Log.Warn("Unexpected moderation label, accepting comment", zap.String("reply", util.Truncate(reply, 100)))
		metrics.RecordModerationVerdict(string(VerdictSafe), true)
		return VerdictSafe
	}
	metrics.RecordModerationVerdict(string(verdict), false)
	return verdict
}

// GenerateTags suggests tags for a writing. HTML is stripped before sending.
func (g *GeminiClient) GenerateTags(ctx context.Context, title, content string) []string {
	if g.apiKey == "" {
		return []string{}
	}
	plain := util.Truncate(util.StripHTML(content), maxPromptContent)
	reply, err := g.generate(ctx, "generate_tags", fmt.Sprintf(tagsPrompt, title, plain))
	if err != nil {
		logger.WarnWithFields("Tag generation failed", err)
		return []string{}
	}
	return ParseTags(reply)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) generate(ctx context.Context, operation, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	reply, err := g.breaker.Execute(func() (string, error) {
		return g.call(ctx, operation, prompt)
	})
	metrics.RecordGatewayCall(operation, time.Since(start), err)
	return reply, err
}

func (g *GeminiClient) call(ctx context.Context, operation, prompt string) (string, error) {
	ctx, span := telemetry.TraceExternalCall(ctx, "gemini", operation)
	status := 0
	var err error
	defer func() { telemetry.EndExternalCall(span, status, err) }()

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err = fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", err
	}

	var parsed generateResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		err = errEmptyReply
		return "", err
	}
	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		err = errEmptyReply
		return "", err
	}
	return text, nil
}

// Ping checks the API key and model by fetching the model description.
func (g *GeminiClient) Ping(ctx context.Context) error {
	if g.apiKey == "" {
		return errors.New("GEMINI_API_KEY is not set")
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	return nil
}
