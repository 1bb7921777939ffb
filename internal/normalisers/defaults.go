package normalisers

import (
	"github.com/custodia-labs/docsight/internal/normalisers/docx"
	"github.com/custodia-labs/docsight/internal/normalisers/eml"
	"github.com/custodia-labs/docsight/internal/normalisers/html"
	"github.com/custodia-labs/docsight/internal/normalisers/markdown"
	"github.com/custodia-labs/docsight/internal/normalisers/msg"
	"github.com/custodia-labs/docsight/internal/normalisers/msword"
	"github.com/custodia-labs/docsight/internal/normalisers/pdf"
	"github.com/custodia-labs/docsight/internal/normalisers/plaintext"
)

// RegisterDefaults registers all built-in normalisers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(eml.New())
	r.Register(msg.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(msword.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(plaintext.New())
}

// NewDefaultRegistry returns a registry holding every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
