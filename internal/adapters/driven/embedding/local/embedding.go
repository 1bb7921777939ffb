// Package local provides an offline embedding service. Texts are mapped to
// fixed-size vectors by hashing their words and character trigrams, so
// texts sharing vocabulary land close together without any model download.
package local

import (
	"context"
	"hash/fnv"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/sentences"
	"github.com/custodia-labs/docsight/internal/vectormath"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 384

// ModelName is reported for every local embedding.
const ModelName = "local-hashing-v1"

const trigramWeight = 0.5

// EmbeddingService is a deterministic feature-hashing embedder.
type EmbeddingService struct {
	dims int
}

// NewEmbeddingService creates an embedder producing dims-sized vectors.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &EmbeddingService{dims: dims}
}

// Embed returns the unit-length hashed vector of text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, s.dims)
	for _, tok := range sentences.Tokens(text) {
		if sentences.IsStopword(tok) {
			continue
		}
		s.add(v, "w:"+tok, 1)
		runes := []rune("^" + tok + "$")
		for i := 0; i+3 <= len(runes); i++ {
			s.add(v, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}
	return vectormath.Normalise(v), nil
}

// add folds feature into v. The hash sign spreads collisions around zero.
func (s *EmbeddingService) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	i := int(sum % uint64(s.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[i] += weight
}

// EmbedBatch embeds each text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int { return s.dims }

// ModelName returns the embedder name.
func (s *EmbeddingService) ModelName() string { return ModelName }

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *EmbeddingService) Close() error { return nil }
