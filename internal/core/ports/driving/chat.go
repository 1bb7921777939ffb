package driving

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// ChatService runs project conversations.
type ChatService interface {
	// Ask records the question, answers it and records the answer.
	// Unrecoverable failures produce an apology message, not an error;
	// an error is returned only when the project does not exist or the
	// question is empty.
	Ask(ctx context.Context, projectID, question string) (*domain.ChatMessage, error)

	// Welcome returns the greeting shown at the start of a conversation.
	Welcome(ctx context.Context, projectID string) (*domain.ChatMessage, error)

	// History returns the last limit messages; zero returns all.
	History(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error)

	// Clear removes a project conversation.
	Clear(ctx context.Context, projectID string) error
}

// SearchService runs raw similarity searches over a project.
type SearchService interface {
	// Search embeds query and returns the top k chunks with document names.
	Search(ctx context.Context, projectID, query string, k int) ([]SearchResult, error)
}

// SearchResult is a search hit joined with its document.
type SearchResult struct {
	Hit          domain.SearchHit
	DocumentName string
}
