package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// DefaultParseTimeout bounds a single format parser run.
const DefaultParseTimeout = 30 * time.Second

// Ingestor turns uploaded bytes into normalised text.
// It has no side effects; callers own document state.
type Ingestor struct {
	registry driven.NormaliserRegistry
	timeout  time.Duration
}

// NewIngestor creates an ingestor. A timeout of zero uses DefaultParseTimeout.
func NewIngestor(registry driven.NormaliserRegistry, timeout time.Duration) *Ingestor {
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	return &Ingestor{registry: registry, timeout: timeout}
}

type normaliseResult struct {
	text *domain.NormalisedText
	err  error
}

// Normalise dispatches content to the matching format parser.
// Parsers that overrun the timeout fail with domain.ErrTimeout; their
// goroutine is left to finish on its own since most parsers ignore the
// context.
func (i *Ingestor) Normalise(ctx context.Context, documentID string, content []byte, filename string) (*domain.NormalisedText, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw := &domain.RawDocument{
		DocumentID: documentID,
		Filename:   filename,
		Content:    content,
	}

	done := make(chan normaliseResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- normaliseResult{err: fmt.Errorf("%w: parser panic: %v", domain.ErrCorruptFile, r)}
			}
		}()
		text, err := i.registry.Normalise(ctx, raw)
		done <- normaliseResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: parsing %s", domain.ErrTimeout, filename)
		}
		return res.text, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: parsing %s took longer than %s", domain.ErrTimeout, filename, i.timeout)
		}
		return nil, ctx.Err()
	}
}
