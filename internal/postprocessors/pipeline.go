// Package postprocessors turns normalised text into indexable chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order, each receiving the chunks the
// previous one produced. The first stage starts from nil and must create
// them.
type Pipeline struct {
	stages []driven.PostProcessor
}

func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks text. The caller stamps the project on the result.
func (p *Pipeline) Process(ctx context.Context, text *domain.NormalisedText) ([]domain.Chunk, error) {
	if text == nil {
		return nil, fmt.Errorf("%w: text is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, text, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		logger.Debug("postprocess %s: %s %d -> %d chunks", text.DocumentID, stage.Name(), len(chunks), len(out))
		chunks = out
	}
	return chunks, nil
}

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
