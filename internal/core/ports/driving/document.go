package driving

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// DocumentService manages documents within projects.
type DocumentService interface {
	// Upload stores the file, creates a processing document and queues it.
	// Returns domain.ErrUnsupportedFormat for extensions outside the supported set.
	Upload(ctx context.Context, projectID, filename string, content []byte) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns the documents of a project.
	List(ctx context.Context, projectID string) ([]domain.Document, error)

	// Content returns the normalised text of a document.
	Content(ctx context.Context, documentID string) (string, error)

	// Delete removes a document. In-flight processing results are discarded.
	Delete(ctx context.Context, documentID string) error

	// Reprocess queues the stored original bytes again.
	Reprocess(ctx context.Context, documentID string) error

	// Wait blocks until the document reaches a terminal status.
	Wait(ctx context.Context, documentID string) (*domain.Document, error)

	// State returns the processing state of a document.
	State(documentID string) (domain.TaskState, bool)
}

// KeyPointService reads extracted key points.
type KeyPointService interface {
	// List returns the key points of a project matching filter.
	List(ctx context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error)

	// Stats counts the key points of a project per type.
	Stats(ctx context.Context, projectID string) (domain.KeyPointStats, error)
}
