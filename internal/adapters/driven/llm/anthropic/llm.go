// Package anthropic generates answers and summaries with the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docsight/internal/adapters/driven/provider"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.PromptStoreAware = (*LLMService)(nil)
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"
	DefaultTimeout = 120 * time.Second

	// The API rejects requests without max_tokens.
	defaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config needs an API key; the other fields have defaults.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService sends every call to POST /v1/messages.
type LLMService struct {
	api     *provider.Client
	model   string
	prompts driven.PromptStore
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	api := provider.NewClient("anthropic", cfg.BaseURL, cfg.Timeout).
		WithHeader("x-api-key", cfg.APIKey).
		WithHeader("anthropic-version", anthropicVersion).
		WithErrorBody(errorMessage)
	return &LLMService{api: api, model: cfg.Model}, nil
}

// errorMessage reads {"error":{"type":..,"message":..}} bodies.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil || e.Error.Message == "" {
		return ""
	}
	return e.Error.Type + ": " + e.Error.Message
}

// Generate has no JSON mode to lean on, so JSON requests prefill the
// assistant turn with "[" and put it back on the reply.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	turns := []message{{Role: "user", Content: prompt}}
	if opts.JSON {
		turns = append(turns, message{Role: "assistant", Content: "["})
	}
	out, err := s.send(ctx, "generate", messagesRequest{Messages: turns, MaxTokens: opts.MaxTokens, Temperature: opts.Temperature})
	if err != nil || !opts.JSON {
		return out, err
	}
	return "[" + out, nil
}

// Chat moves system turns into the top-level system field.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := messagesRequest{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, message(m))
	}
	req.System = strings.Join(system, "\n\n")
	return s.send(ctx, "chat", req)
}

func (s *LLMService) send(ctx context.Context, op string, req messagesRequest) (string, error) {
	req.Model = s.model
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var resp messagesResponse
	if err := s.api.Do(ctx, op, http.MethodPost, "/v1/messages", req, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return "", provider.Wrap(s.api.Name(), op, errors.New("reply has no text"))
	}
	return text.String(), nil
}

func (s *LLMService) Summarise(ctx context.Context, content string, maxLength int) (string, error) {
	return provider.Summarise(ctx, s, s.prompts, content, maxLength)
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore sets where the summary prompt is loaded from.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Close is a no-op; the HTTP client holds no resources.
func (s *LLMService) Close() error {
	return nil
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Do(ctx, "ping", http.MethodGet, "/v1/models", nil, nil)
}
