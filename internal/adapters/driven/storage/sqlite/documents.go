package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

const documentColumns = `id, project_id, name, source_type, size, status, summary, error, uploaded_at, updated_at`

// SaveDocument stores or updates a document. The project must exist.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	ok, err := s.exists(ctx, "projects", doc.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: project %s", domain.ErrNotFound, doc.ProjectID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source_type = excluded.source_type,
			size = excluded.size,
			status = excluded.status,
			summary = excluded.summary,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, doc.ID, doc.ProjectID, doc.Name, string(doc.SourceType), doc.Size, string(doc.Status),
		doc.Summary, doc.Error, toUnix(doc.UploadedAt), toUnix(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the documents of a project, newest first.
func (s *Store) ListDocuments(ctx context.Context, projectID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+
		" FROM documents WHERE project_id = ? ORDER BY uploaded_at DESC, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// SetDocumentStatus updates the processing status and error message.
func (s *Store) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE id = ?",
		string(status), errMsg, time.Now().UnixNano(), id)
	return expectRow(res, err, "document")
}

// SetSummary stores the document summary.
func (s *Store) SetSummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET summary = ?, updated_at = ? WHERE id = ?",
		summary, time.Now().UnixNano(), id)
	return expectRow(res, err, "document")
}

// SaveContent stores the original bytes and the normalised text.
// A nil raw or empty text keeps the stored value.
func (s *Store) SaveContent(ctx context.Context, id string, raw []byte, text string) error {
	ok, err := s.exists(ctx, "documents", id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	var rawArg any
	if raw != nil {
		rawArg = raw
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_blobs (document_id, raw, text) VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			raw = COALESCE(excluded.raw, document_blobs.raw),
			text = CASE WHEN excluded.text = '' THEN document_blobs.text ELSE excluded.text END
	`, id, rawArg, text)
	if err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

// GetContent returns the original bytes and the normalised text.
func (s *Store) GetContent(ctx context.Context, id string) ([]byte, string, error) {
	var raw []byte
	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT raw, text FROM document_blobs WHERE document_id = ?", id).Scan(&raw, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("scanning content: %w", err)
	}
	return raw, text, nil
}

// DeleteDocument removes a document with its key points and content.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceType, status string
	var uploadedAt, updatedAt int64
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Name, &sourceType, &doc.Size, &status,
		&doc.Summary, &doc.Error, &uploadedAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.SourceType = domain.SourceType(sourceType)
	doc.Status = domain.DocumentStatus(status)
	doc.UploadedAt = fromUnix(uploadedAt)
	doc.UpdatedAt = fromUnix(updatedAt)
	return &doc, nil
}
