// Package prose finds named entities with the prose NLP library.
package prose

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Recogniser implements the interface.
var _ driven.EntityRecogniser = (*Recogniser)(nil)

// maxTextLen bounds the text tagged in one call; longer input is cut at a
// line break. The averaged perceptron tagger grows slow on huge inputs.
const maxTextLen = 20000

// Recogniser tags PERSON and GPE entities. It holds no state; the prose
// models are loaded once by the library.
type Recogniser struct{}

// NewRecogniser creates an entity recogniser.
func NewRecogniser() *Recogniser {
	return &Recogniser{}
}

// Entities returns the distinct entities of text in order of first use.
func (r *Recogniser) Entities(ctx context.Context, text string) ([]driven.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if len(text) > maxTextLen {
		cut := strings.LastIndexByte(text[:maxTextLen], '\n')
		if cut <= 0 {
			cut = maxTextLen
		}
		text = text[:cut]
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tagging entities: %w", err)
	}

	seen := make(map[string]bool)
	var out []driven.Entity
	for _, ent := range doc.Entities() {
		name := strings.Trim(ent.Text, " \t\n.,;:")
		if name == "" {
			continue
		}
		key := ent.Label + "\x00" + strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, driven.Entity{Text: name, Label: ent.Label})
	}
	return out, nil
}
