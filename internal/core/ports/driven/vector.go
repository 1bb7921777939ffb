package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers similarity queries.
//
// Upsert and Delete for one document are mutually exclusive, and a
// concurrent Search sees either the old or the new set of chunks for a
// document, never a mix.
type VectorIndex interface {
	// Upsert replaces every chunk of documentID with chunks.
	// Calling it twice with the same input leaves the same stored state.
	// Returns domain.ErrDimensionMismatch for vectors of the wrong size.
	Upsert(ctx context.Context, projectID, documentID string, chunks []domain.ChunkInput) error

	// Search returns at most k chunks of projectID by descending cosine
	// similarity. Ties are broken by ordinal, earlier first.
	Search(ctx context.Context, projectID string, query []float32, k int) ([]domain.SearchHit, error)

	// Delete removes every chunk of documentID. Absent documents are a no-op.
	Delete(ctx context.Context, documentID string) error

	// DeleteProject removes every chunk of projectID.
	DeleteProject(ctx context.Context, projectID string) error

	// Count returns the number of chunks stored for projectID.
	Count(ctx context.Context, projectID string) (int, error)

	// Dimensions returns the configured vector size, or 0 if not yet fixed.
	Dimensions() int

	// Close releases resources.
	Close() error
}
