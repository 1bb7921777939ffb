package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// PostProcessor processes normalised text to produce chunks.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes normalised text and returns chunks.
	// A processor that creates chunks receives nil; one that refines
	// chunks receives the previous stage's output.
	Process(ctx context.Context, text *domain.NormalisedText, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the text through all processors in order.
	Process(ctx context.Context, text *domain.NormalisedText) ([]domain.Chunk, error)
}
