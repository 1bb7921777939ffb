package cache

import (
	"context"
	"io"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves embeddings from a cache and asks the wrapped
// service only for misses. Cache failures are logged and bypassed.
type EmbeddingService struct {
	driven.EmbeddingService
	cache driven.EmbeddingCache
}

// NewEmbeddingService wraps inner with cache.
func NewEmbeddingService(inner driven.EmbeddingService, cache driven.EmbeddingCache) *EmbeddingService {
	return &EmbeddingService{EmbeddingService: inner, cache: cache}
}

// Embed returns the cached vector of text or embeds and caches it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds only the texts missing from the cache, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := s.ModelName()
	out := make([][]float32, len(texts))

	var missing []string
	var missingAt []int
	for i, text := range texts {
		v, ok, err := s.cache.Get(ctx, model, text)
		if err != nil {
			logger.Warn("embedding cache read failed: %v", err)
		}
		if ok && len(v) == s.Dimensions() {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}
	if len(missing) == 0 {
		logger.Debug("embedding cache hit for %d texts", len(texts))
		return out, nil
	}

	fresh, err := s.EmbeddingService.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range fresh {
		out[missingAt[j]] = v
		if err := s.cache.Set(ctx, model, missing[j], v); err != nil {
			logger.Warn("embedding cache write failed: %v", err)
		}
	}
	return out, nil
}

// Close closes the wrapped service and the cache when it is closable.
func (s *EmbeddingService) Close() error {
	err := s.EmbeddingService.Close()
	if c, ok := s.cache.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
