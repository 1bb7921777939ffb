package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Normaliser transforms raw documents into plain text.
// Each normaliser handles specific file extensions and MIME types.
type Normaliser interface {
	// SupportedExtensions returns lower-case extensions without the dot.
	SupportedExtensions() []string

	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text from a raw document.
	// Returns domain.ErrCorruptFile when no text can be produced.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error)
}

// NormaliserRegistry selects the appropriate normaliser for a document.
// Selection is by extension first, then by MIME type, highest priority wins.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching normaliser.
	// Returns domain.ErrUnsupportedFormat when nothing matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns every extension that can be normalised.
	SupportedExtensions() []string
}
