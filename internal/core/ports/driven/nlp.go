package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Entity is a named entity found in text.
type Entity struct {
	// Text is the entity surface form.
	Text string

	// Label is PERSON, GPE, LOCATION or ORGANIZATION.
	Label string
}

// EntityRecogniser finds named entities in text.
type EntityRecogniser interface {
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// Metrics records operational counters.
type Metrics interface {
	// DocumentProcessed records a finished processing task.
	DocumentProcessed(status domain.DocumentStatus, elapsed time.Duration)

	// KeyPointsExtracted records key points committed per type.
	KeyPointsExtracted(kind domain.KeyPointType, n int)

	// ChatTurn records a chat turn entering state, elapsed after it started.
	ChatTurn(state domain.TurnState, elapsed time.Duration)

	// RetrievalHits records how many chunks a search returned.
	RetrievalHits(n int)

	// ProviderCall records an embedding or generation call.
	ProviderCall(provider, op string, err error, elapsed time.Duration)
}
