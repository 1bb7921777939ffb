package plaintext

import (
	"bytes"
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"txt", "text", "log", "csv"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise passes text through, fixing encoding and whitespace.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// NUL bytes mean a binary file with a text extension.
	if bytes.IndexByte(raw.Content, 0) >= 0 {
		return nil, domain.ErrCorruptFile
	}

	content := textutil.Clean(textutil.ToUTF8(raw.Content))

	metadata := textutil.CopyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "text"

	return &domain.NormalisedText{
		DocumentID: raw.DocumentID,
		Title:      titleFor(raw),
		Content:    content,
		MIMEType:   "text/plain",
		Metadata:   metadata,
	}, nil
}

// titleFor checks metadata for a title first, then falls back to the file name.
func titleFor(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return textutil.TitleFromFilename(raw.Filename)
}
