// Package tiktoken counts tokens with the BPE encodings used by OpenAI models.
package tiktoken

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is used for models tiktoken does not know.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with one encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter returns a counter for model, or for DefaultEncoding when the
// model is unknown, as with Ollama and Anthropic models.
func NewCounter(model string) (*Counter, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return &Counter{enc: enc}, nil
		}
	}
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", DefaultEncoding, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate counts a token per four characters. It stands in when the
// encoding cannot be loaded.
type Estimate struct{}

// Count returns the estimated number of tokens in text.
func (Estimate) Count(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// NewCounterOrEstimate returns a Counter, or Estimate if the encoding fails to load.
func NewCounterOrEstimate(model string) driven.TokenCounter {
	c, err := NewCounter(model)
	if err != nil {
		return Estimate{}
	}
	return c
}
