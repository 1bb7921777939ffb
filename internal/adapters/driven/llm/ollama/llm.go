// Package ollama generates answers and summaries with a local Ollama
// server.
package ollama

import (
	"context"
	"net/http"
	"time"

	"github.com/custodia-labs/docsight/internal/adapters/driven/provider"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.PromptStoreAware = (*LLMService)(nil)
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config selects the server and model. Zero fields take the defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService talks to /api/generate and /api/chat without streaming.
type LLMService struct {
	api     *provider.Client
	model   string
	prompts driven.PromptStore
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{api: provider.NewClient("ollama", cfg.BaseURL, cfg.Timeout), model: cfg.Model}
}

// tuning returns nil when both values are unset so the model defaults apply.
func tuning(maxTokens int, temperature float64) *options {
	if maxTokens <= 0 && temperature <= 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature}
}

// Generate uses Ollama's JSON format mode when opts.JSON is set.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{Model: s.model, Prompt: prompt, Options: tuning(opts.MaxTokens, opts.Temperature)}
	if opts.JSON {
		req.Format = "json"
	}
	var resp generateResponse
	if err := s.api.Do(ctx, "generate", http.MethodPost, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{Model: s.model, Messages: make([]chatMessage, len(messages)), Options: tuning(opts.MaxTokens, opts.Temperature)}
	for i, m := range messages {
		req.Messages[i] = chatMessage(m)
	}
	var resp chatResponse
	if err := s.api.Do(ctx, "chat", http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
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

// Ping lists the installed models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Do(ctx, "ping", http.MethodGet, "/api/tags", nil, nil)
}
