package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Generator is the part of driven.LLMService Summarise needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error)
}

// Summarise asks gen for a summary of content of at most maxLength
// characters, using the summarise prompt from store or the built-in one.
func Summarise(ctx context.Context, gen Generator, store driven.PromptStore, content string, maxLength int) (string, error) {
	prompt := fmt.Sprintf(driven.LoadPrompt(store, driven.PromptSummarise), maxLength, content)

	// About four characters per token.
	out, err := gen.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: maxLength / 4, Temperature: 0.3})
	if err != nil {
		return "", fmt.Errorf("summarise: %w", err)
	}
	return strings.TrimSpace(out), nil
}
