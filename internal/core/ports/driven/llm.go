package driven

import "context"

// LLMService is a chat-capable language model. Providers are OpenAI,
// Anthropic and Ollama, plus an offline extractive fallback.
//
// Errors from a remote provider wrap domain.ErrProviderError, or
// domain.ErrTimeout when the call ran out of time.
type LLMService interface {
	// Generate completes a single prompt. Key point extraction asks for
	// JSON through opts.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat answers the last user turn of messages.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// Summarise condenses content to at most maxLength characters.
	Summarise(ctx context.Context, content string, maxLength int) (string, error)

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tune a Generate call. Zero values leave the provider
// default in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	JSON        bool
}

// ChatMessage is one turn sent to the model. Role is "system", "user"
// or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tune a Chat call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
