// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/docsight/internal/adapters/driven/provider"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
)

// knownDimensions covers the embedding models Ollama ships most often.
var knownDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
	"bge-m3":                 1024,
}

// Config selects the server and model. Zero fields take the defaults;
// Dimensions falls back to the model's known size.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService calls POST /api/embed.
type EmbeddingService struct {
	api        *provider.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	model := orDefault(cfg.Model, DefaultModel)
	dims := cfg.Dimensions
	if dims == 0 {
		dims = knownDimensions[model]
	}
	if dims == 0 {
		dims = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &EmbeddingService{
		api:        provider.NewClient("ollama", orDefault(cfg.BaseURL, DefaultBaseURL), timeout),
		model:      model,
		dimensions: dims,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends every text in one request. Inputs longer than the
// model's context are truncated by the server.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	req := embedRequest{Model: s.model, Input: texts, Truncate: true}
	if err := s.api.Do(ctx, "embed", http.MethodPost, "/api/embed", req, &resp); err != nil {
		return nil, err
	}
	if n := len(resp.Embeddings); n != len(texts) {
		return nil, provider.Wrap(s.api.Name(), "embed", fmt.Errorf("got %d vectors for %d inputs", n, len(texts)))
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }
func (s *EmbeddingService) Close() error      { return nil }

// Ping lists the installed models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Do(ctx, "ping", http.MethodGet, "/api/tags", nil, nil)
}
