package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// ProjectStore persists projects.
type ProjectStore interface {
	// SaveProject stores or updates a project.
	SaveProject(ctx context.Context, project *domain.Project) error

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, id string) (*domain.Project, error)

	// ListProjects returns every project with derived counts.
	ListProjects(ctx context.Context) ([]domain.ProjectSummary, error)

	// SummariseProject returns one project with derived counts.
	SummariseProject(ctx context.Context, id string) (*domain.ProjectSummary, error)

	// TouchProject bumps the last activity timestamp.
	TouchProject(ctx context.Context, id string) error

	// DeleteProject removes a project and everything it owns.
	DeleteProject(ctx context.Context, id string) error
}

// DocumentStore persists documents and their processing results.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the documents of a project, newest first.
	ListDocuments(ctx context.Context, projectID string) ([]domain.Document, error)

	// SetDocumentStatus updates the processing status and error message.
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error

	// SetSummary stores the document summary.
	SetSummary(ctx context.Context, id, summary string) error

	// SaveContent stores the original bytes and, once known, the normalised text.
	SaveContent(ctx context.Context, id string, raw []byte, text string) error

	// GetContent returns the original bytes and the normalised text.
	GetContent(ctx context.Context, id string) ([]byte, string, error)

	// DeleteDocument removes a document with its key points and content.
	DeleteDocument(ctx context.Context, id string) error
}

// KeyPointStore persists extracted key points.
type KeyPointStore interface {
	// AppendKeyPoints adds key points to a document.
	AppendKeyPoints(ctx context.Context, documentID string, kps []domain.KeyPoint) error

	// ReplaceKeyPoints swaps every key point of a document in one step.
	ReplaceKeyPoints(ctx context.Context, documentID string, kps []domain.KeyPoint) error

	// ListKeyPoints returns the key points of a project matching filter.
	ListKeyPoints(ctx context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error)
}

// ChatStore persists project conversations.
type ChatStore interface {
	// AppendMessage adds a message to a project conversation.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error

	// ListMessages returns the last limit messages in chronological order.
	// A limit of zero returns every message.
	ListMessages(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error)

	// ClearMessages removes a project conversation.
	ClearMessages(ctx context.Context, projectID string) error
}

// Store bundles every persistence port implemented by a storage backend.
type Store interface {
	ProjectStore
	DocumentStore
	KeyPointStore
	ChatStore
	Close() error
}
