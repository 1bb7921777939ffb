package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion errors. Both are terminal for the document.

	// ErrUnsupportedFormat indicates the file extension is outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptFile indicates the format parser could not produce any text.
	ErrCorruptFile = errors.New("corrupt file")

	// ErrExtractionUnavailable indicates key point extraction could not run.
	ErrExtractionUnavailable = errors.New("extraction unavailable")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	// This is a configuration error and is never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGenerationUnavailable indicates the generation backend failed to answer.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrNoIndexedContent indicates a project has nothing to retrieve from.
	// It degrades to a hedged answer and is never returned to callers of Answer.
	ErrNoIndexedContent = errors.New("no indexed content")

	// Provider errors. Both are transient and eligible for a single retry.

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrProviderError wraps an upstream embedding or generation failure.
	ErrProviderError = errors.New("provider error")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// IsTransient reports whether err is worth one automatic retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDimensionMismatch) {
		return false
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProviderError)
}
