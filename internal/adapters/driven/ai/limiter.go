package ai

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure the limiters implement the interfaces.
var (
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
	_ driven.PromptStoreAware = (*RateLimitedLLM)(nil)
)

func newLimiter(perSecond float64) *rate.Limiter {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// wait blocks for a token. Running out of deadline while queued is a timeout.
func wait(ctx context.Context, lim *rate.Limiter) error {
	err := lim.Wait(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: waiting for provider rate limit: %v", domain.ErrTimeout, err)
}

// RateLimitedEmbedding spaces out calls to an embedding provider.
// A batch counts as one call.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	lim *rate.Limiter
}

// NewRateLimitedEmbedding allows perSecond calls per second to inner.
func NewRateLimitedEmbedding(inner driven.EmbeddingService, perSecond float64) *RateLimitedEmbedding {
	return &RateLimitedEmbedding{EmbeddingService: inner, lim: newLimiter(perSecond)}
}

// Embed waits for the limiter, then embeds text.
func (e *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := wait(ctx, e.lim); err != nil {
		return nil, err
	}
	return e.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for the limiter, then embeds texts.
func (e *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := wait(ctx, e.lim); err != nil {
		return nil, err
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

// RateLimitedLLM spaces out calls to a generation provider.
type RateLimitedLLM struct {
	driven.LLMService
	lim *rate.Limiter
}

// NewRateLimitedLLM allows perSecond calls per second to inner.
func NewRateLimitedLLM(inner driven.LLMService, perSecond float64) *RateLimitedLLM {
	return &RateLimitedLLM{LLMService: inner, lim: newLimiter(perSecond)}
}

// Generate waits for the limiter, then generates.
func (l *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := wait(ctx, l.lim); err != nil {
		return "", err
	}
	return l.LLMService.Generate(ctx, prompt, opts)
}

// Chat waits for the limiter, then chats.
func (l *RateLimitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := wait(ctx, l.lim); err != nil {
		return "", err
	}
	return l.LLMService.Chat(ctx, messages, opts)
}

// Summarise waits for the limiter, then summarises.
func (l *RateLimitedLLM) Summarise(ctx context.Context, content string, maxLength int) (string, error) {
	if err := wait(ctx, l.lim); err != nil {
		return "", err
	}
	return l.LLMService.Summarise(ctx, content, maxLength)
}

// SetPromptStore forwards to the wrapped service when it takes prompts.
func (l *RateLimitedLLM) SetPromptStore(store driven.PromptStore) {
	if aware, ok := l.LLMService.(driven.PromptStoreAware); ok {
		aware.SetPromptStore(store)
	}
}
