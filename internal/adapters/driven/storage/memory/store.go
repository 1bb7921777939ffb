// Package memory provides in-memory implementations of the storage ports.
// Nothing survives a restart; it backs tests and the ephemeral mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

type blob struct {
	raw  []byte
	text string
}

// Store is an in-memory implementation of driven.Store.
type Store struct {
	mu        sync.RWMutex
	projects  map[string]domain.Project
	documents map[string]domain.Document
	blobs     map[string]blob
	keyPoints map[string][]domain.KeyPoint
	messages  map[string][]domain.ChatMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		projects:  make(map[string]domain.Project),
		documents: make(map[string]domain.Document),
		blobs:     make(map[string]blob),
		keyPoints: make(map[string][]domain.KeyPoint),
		messages:  make(map[string][]domain.ChatMessage),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// SaveProject stores or updates a project.
func (s *Store) SaveProject(_ context.Context, project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = *project
	return nil
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(_ context.Context, id string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// summarise derives the counts of a project. Callers hold mu.
func (s *Store) summarise(p domain.Project) domain.ProjectSummary {
	summary := domain.ProjectSummary{Project: p}
	for _, doc := range s.documents {
		if doc.ProjectID == p.ID {
			summary.DocumentsCount++
			summary.KeyPointsCount += len(s.keyPoints[doc.ID])
		}
	}
	return summary
}

// ListProjects returns every project, most recently active first.
func (s *Store) ListProjects(_ context.Context) ([]domain.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProjectSummary, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, s.summarise(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SummariseProject returns one project with derived counts.
func (s *Store) SummariseProject(_ context.Context, id string) (*domain.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	summary := s.summarise(p)
	return &summary, nil
}

// TouchProject bumps the last activity timestamp.
func (s *Store) TouchProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.LastActivityAt = time.Now()
	s.projects[id] = p
	return nil
}

// DeleteProject removes a project with its documents and conversation.
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, doc := range s.documents {
		if doc.ProjectID == id {
			s.deleteDocument(docID)
		}
	}
	delete(s.messages, id)
	delete(s.projects, id)
	return nil
}

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[doc.ProjectID]; !ok {
		return domain.ErrNotFound
	}
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns the documents of a project, newest first.
func (s *Store) ListDocuments(_ context.Context, projectID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Document
	for _, doc := range s.documents {
		if doc.ProjectID == projectID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) updateDocument(id string, fn func(*domain.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&doc)
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// SetDocumentStatus updates the processing status and error message.
func (s *Store) SetDocumentStatus(_ context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	return s.updateDocument(id, func(d *domain.Document) {
		d.Status = status
		d.Error = errMsg
	})
}

// SetSummary stores the document summary.
func (s *Store) SetSummary(_ context.Context, id, summary string) error {
	return s.updateDocument(id, func(d *domain.Document) { d.Summary = summary })
}

// SaveContent stores the original bytes and the normalised text.
// A nil raw or empty text keeps the stored value.
func (s *Store) SaveContent(_ context.Context, id string, raw []byte, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	b := s.blobs[id]
	if raw != nil {
		b.raw = append([]byte(nil), raw...)
	}
	if text != "" {
		b.text = text
	}
	s.blobs[id] = b
	return nil
}

// GetContent returns the original bytes and the normalised text.
func (s *Store) GetContent(_ context.Context, id string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return b.raw, b.text, nil
}

// DeleteDocument removes a document with its key points and content.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteDocument(id)
	return nil
}

func (s *Store) deleteDocument(id string) {
	delete(s.documents, id)
	delete(s.blobs, id)
	delete(s.keyPoints, id)
}

// AppendKeyPoints adds key points to a document.
func (s *Store) AppendKeyPoints(_ context.Context, documentID string, kps []domain.KeyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	s.keyPoints[documentID] = append(s.keyPoints[documentID], kps...)
	return nil
}

// ReplaceKeyPoints swaps every key point of a document.
func (s *Store) ReplaceKeyPoints(_ context.Context, documentID string, kps []domain.KeyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	s.keyPoints[documentID] = append([]domain.KeyPoint(nil), kps...)
	return nil
}

// ListKeyPoints returns the key points of a project matching filter,
// grouped by document upload order.
func (s *Store) ListKeyPoints(_ context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.ProjectID == projectID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	var out []domain.KeyPoint
	for _, doc := range docs {
		for _, kp := range s.keyPoints[doc.ID] {
			if filter.Matches(kp) {
				out = append(out, kp)
			}
		}
	}
	return out, nil
}

// AppendMessage adds a message to a project conversation.
func (s *Store) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[msg.ProjectID]; !ok {
		return domain.ErrNotFound
	}
	s.messages[msg.ProjectID] = append(s.messages[msg.ProjectID], *msg)
	return nil
}

// ListMessages returns the last limit messages in chronological order.
func (s *Store) ListMessages(_ context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[projectID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ChatMessage(nil), msgs...), nil
}

// ClearMessages removes a project conversation.
func (s *Store) ClearMessages(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, projectID)
	return nil
}
