// Package noise drops chunks that carry no readable text, such as runs of
// table borders or page numbers left over from PDF and Word extraction.
package noise

import (
	"context"
	"unicode"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultMinLetters is the letter count below which a chunk is dropped.
const DefaultMinLetters = 3

// Processor filters chunks and renumbers the survivors so ordinals stay
// contiguous.
type Processor struct {
	minLetters int
}

// New creates a noise filter.
func New(minLetters int) *Processor {
	if minLetters <= 0 {
		minLetters = DefaultMinLetters
	}
	return &Processor{minLetters: minLetters}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "noise"
}

// Process keeps chunks with at least minLetters letters.
func (p *Processor) Process(_ context.Context, text *domain.NormalisedText, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if letters(chunk.Content, p.minLetters) < p.minLetters {
			continue
		}
		chunk.Ordinal = len(kept)
		chunk.ID = domain.ChunkID(text.DocumentID, chunk.Ordinal)
		kept = append(kept, chunk)
	}
	return kept, nil
}

func letters(s string, limit int) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
			if n >= limit {
				break
			}
		}
	}
	return n
}
