package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/postprocessors/chunker"
	"github.com/custodia-labs/docsight/internal/postprocessors/noise"
)

// DefaultPipeline is run on every document.
var DefaultPipeline = []string{"chunker", "noise"}

// Defaults returns a registry of the built-in processors.
func Defaults() Registry {
	return Registry{
		"chunker": buildChunker,
		"noise":   buildNoise,
	}
}

// buildChunker reads size, overlap, and a token_counter with max_tokens.
func buildChunker(o Options) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := o.Int("size"); ok {
		if size <= 0 {
			return nil, fmt.Errorf("size must be positive, got %d", size)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := o.Int("overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if counter, ok := o["token_counter"].(driven.TokenCounter); ok {
		limit, _ := o.Int("max_tokens")
		opts = append(opts, chunker.WithTokenLimit(counter, limit))
	}
	return chunker.New(opts...), nil
}

// buildNoise reads min_letters.
func buildNoise(o Options) (driven.PostProcessor, error) {
	n, ok := o.Int("min_letters")
	if !ok || n <= 0 {
		n = noise.DefaultMinLetters
	}
	return noise.New(n), nil
}
