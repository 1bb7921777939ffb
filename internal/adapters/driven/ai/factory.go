// Package ai builds the embedding and generation services named by the
// settings, with caching and rate limiting layered on top.
package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsight/internal/adapters/driven/embedding/cache"
	localembed "github.com/custodia-labs/docsight/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/docsight/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docsight/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docsight/internal/adapters/driven/llm/anthropic"
	localllm "github.com/custodia-labs/docsight/internal/adapters/driven/llm/local"
	ollamallm "github.com/custodia-labs/docsight/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docsight/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Options tunes the services built by Init.
type Options struct {
	// Timeout bounds one HTTP request to a provider. Zero keeps the adapter default.
	Timeout time.Duration

	// RatePerSecond limits provider calls. Zero disables limiting.
	RatePerSecond float64

	// Cache stores embeddings across runs. Nil disables caching.
	Cache driven.EmbeddingCache

	// PromptStore customises LLM prompts. Nil uses the built-in prompts.
	PromptStore driven.PromptStore
}

// InitResult holds the services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if a provider fell back to the local one.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds both services. A provider that is not configured, such as a
// cloud provider without an API key, falls back to the local one with a
// warning. A configured provider that cannot be built is an error.
func Init(emb domain.EmbeddingSettings, llm domain.LLMSettings, opts Options) (*InitResult, error) {
	result := &InitResult{}

	if !emb.IsConfigured() {
		result.warn("embedding provider %q is not configured, using local embeddings", emb.Provider)
		emb = domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Dimensions: emb.Dimensions}
	}
	embedder, err := CreateEmbeddingService(emb, opts.Timeout)
	if err != nil {
		return nil, err
	}
	if opts.Cache != nil {
		embedder = cache.NewEmbeddingService(embedder, opts.Cache)
	}
	if opts.RatePerSecond > 0 && emb.Provider != domain.AIProviderLocal {
		embedder = NewRateLimitedEmbedding(embedder, opts.RatePerSecond)
	}
	result.EmbeddingService = embedder

	if !llm.IsConfigured() {
		result.warn("llm provider %q is not configured, using the local extractive responder", llm.Provider)
		llm = domain.LLMSettings{Provider: domain.AIProviderLocal}
	}
	generator, err := CreateLLMService(llm, opts.Timeout)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	if opts.RatePerSecond > 0 && llm.Provider != domain.AIProviderLocal {
		generator = NewRateLimitedLLM(generator, opts.RatePerSecond)
	}
	if aware, ok := generator.(driven.PromptStoreAware); ok && opts.PromptStore != nil {
		aware.SetPromptStore(opts.PromptStore)
	}
	result.LLMService = generator

	logger.Debug("ai: embedding %s (%d dims), llm %s",
		embedder.ModelName(), embedder.Dimensions(), generator.ModelName())
	return result, nil
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
	r.FellBack = true
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, unavailable(domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	default:
		return nil, unavailable(domain.ErrEmbeddingUnavailable, settings.Provider)
	}
}

// CreateLLMService creates the generation service named by settings.
func CreateLLMService(settings domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, unavailable(domain.ErrLLMUnavailable, settings.Provider)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderLocal:
		svc = localllm.NewLLMService()

	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return nil, unavailable(domain.ErrLLMUnavailable, settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func unavailable(kind error, p domain.AIProvider) error {
	switch {
	case p == "":
		return fmt.Errorf("%w: no provider set", kind)
	case !p.IsValid():
		return fmt.Errorf("%w: unknown provider %q", kind, p)
	case errors.Is(kind, domain.ErrEmbeddingUnavailable) && !p.SupportsEmbedding():
		return fmt.Errorf("%w: %s does not provide embeddings, use local, ollama or openai", kind, p)
	case p.RequiresAPIKey():
		return fmt.Errorf("%w: %s needs an API key", kind, p)
	default:
		return fmt.Errorf("%w: %s is not configured", kind, p)
	}
}
