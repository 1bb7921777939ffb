package driven

import "context"

// EmbeddingService turns text into vectors for the Index. Remote
// providers are OpenAI and Ollama; the local hashing embedder needs no
// network.
type EmbeddingService interface {
	// Embed returns the vector for text. Provider failures wrap
	// domain.ErrProviderError or domain.ErrTimeout.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length. Changing it invalidates the index.
	Dimensions() int

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// EmbeddingCache remembers vectors per model and text so unchanged
// chunks are not embedded twice.
type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vector []float32) error
}
