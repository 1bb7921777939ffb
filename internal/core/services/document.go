package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure documentService implements the interface.
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface.
type documentService struct {
	store      driven.Store
	index      driven.VectorIndex
	processor  *Processor
	extensions []string
}

// NewDocumentService creates a new document service. Uploads are accepted
// for the extensions the registry supports.
func NewDocumentService(
	store driven.Store,
	index driven.VectorIndex,
	processor *Processor,
	registry driven.NormaliserRegistry,
) driving.DocumentService {
	return &documentService{
		store:      store,
		index:      index,
		processor:  processor,
		extensions: registry.SupportedExtensions(),
	}
}

// Upload stores the file, creates a processing document and queues it.
func (s *documentService) Upload(ctx context.Context, projectID, filename string, content []byte) (*domain.Document, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	if !slices.Contains(s.extensions, domain.Extension(name)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Name:       name,
		SourceType: domain.SourceTypeFromFilename(name),
		Size:       int64(len(content)),
		Status:     domain.StatusProcessing,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.store.SaveContent(ctx, doc.ID, content, ""); err != nil {
		return nil, fmt.Errorf("save content: %w", err)
	}
	_ = s.store.TouchProject(ctx, projectID)

	if err := s.processor.Submit(ctx, doc.ID, content, name); err != nil {
		return nil, fmt.Errorf("queue document: %w", err)
	}
	logger.Info("uploaded %s (%d bytes) to project %s", name, doc.Size, projectID)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *documentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// List returns the documents of a project.
func (s *documentService) List(ctx context.Context, projectID string) ([]domain.Document, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, projectID)
}

// Content returns the normalised text of a document.
// It is empty until the document has been processed.
func (s *documentService) Content(ctx context.Context, documentID string) (string, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return "", err
	}
	_, text, err := s.store.GetContent(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return text, err
}

// Delete removes a document, its key points and its chunks.
func (s *documentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return err
	}
	s.processor.Forget(documentID)

	if err := s.index.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info("deleted document %s", documentID)
	return nil
}

// Reprocess queues the stored original bytes again.
func (s *documentService) Reprocess(ctx context.Context, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	raw, _, err := s.store.GetContent(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load original: %w", err)
	}
	if err := s.store.SetDocumentStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return err
	}
	return s.processor.Submit(ctx, documentID, raw, doc.Name)
}

// Wait blocks until the document has no queued or running task.
func (s *documentService) Wait(ctx context.Context, documentID string) (*domain.Document, error) {
	if err := s.processor.Wait(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetDocument(ctx, documentID)
}

// State returns the processing state of a document.
func (s *documentService) State(documentID string) (domain.TaskState, bool) {
	return s.processor.State(documentID)
}

// ResumePending resubmits documents left in processing by a previous run.
func ResumePending(ctx context.Context, store driven.Store, processor *Processor) (int, error) {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, p := range projects {
		docs, err := store.ListDocuments(ctx, p.ID)
		if err != nil {
			return resumed, err
		}
		for _, doc := range docs {
			if doc.Status != domain.StatusProcessing {
				continue
			}
			if _, ok := processor.State(doc.ID); ok {
				continue
			}
			raw, _, err := store.GetContent(ctx, doc.ID)
			if err != nil {
				logger.Warn("cannot resume %s: %v", doc.Name, err)
				continue
			}
			if err := processor.Submit(ctx, doc.ID, raw, doc.Name); err != nil {
				return resumed, err
			}
			resumed++
		}
	}
	if resumed > 0 {
		logger.Info("resumed processing of %d documents", resumed)
	}
	return resumed, nil
}
