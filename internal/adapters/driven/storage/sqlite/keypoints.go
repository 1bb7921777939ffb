package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// AppendKeyPoints adds key points after the existing ones of a document.
func (s *Store) AppendKeyPoints(ctx context.Context, documentID string, kps []domain.KeyPoint) error {
	return s.writeKeyPoints(ctx, documentID, kps, false)
}

// ReplaceKeyPoints swaps every key point of a document in one transaction.
func (s *Store) ReplaceKeyPoints(ctx context.Context, documentID string, kps []domain.KeyPoint) error {
	return s.writeKeyPoints(ctx, documentID, kps, true)
}

func (s *Store) writeKeyPoints(ctx context.Context, documentID string, kps []domain.KeyPoint, replace bool) error {
	ok, err := s.exists(ctx, "documents", documentID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM key_points WHERE document_id = ?", documentID); err != nil {
			return fmt.Errorf("clearing key points: %w", err)
		}
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM key_points WHERE document_id = ?",
		documentID).Scan(&next); err != nil {
		return fmt.Errorf("reading key point position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO key_points (id, document_id, position, type, content, source, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			type = excluded.type,
			content = excluded.content,
			source = excluded.source,
			confidence = excluded.confidence
	`)
	if err != nil {
		return fmt.Errorf("preparing key point insert: %w", err)
	}
	defer stmt.Close()

	for i, kp := range kps {
		if _, err := stmt.ExecContext(ctx, kp.ID, documentID, next+i, string(kp.Type), kp.Content,
			kp.Source, kp.Confidence, toUnix(kp.CreatedAt)); err != nil {
			return fmt.Errorf("saving key point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing key points: %w", err)
	}
	return nil
}

// ListKeyPoints returns the key points of a project matching filter,
// grouped by document upload order. The substring filter runs in Go so
// case folding follows Unicode rather than SQLite's ASCII-only LOWER.
func (s *Store) ListKeyPoints(ctx context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	query := `
		SELECT k.id, k.document_id, k.type, k.content, k.source, k.confidence, k.created_at
		FROM key_points k JOIN documents d ON d.id = k.document_id
		WHERE d.project_id = ?`
	args := []any{projectID}
	if filter.DocumentID != "" {
		query += " AND k.document_id = ?"
		args = append(args, filter.DocumentID)
	}
	query += " ORDER BY d.uploaded_at, d.id, k.position"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying key points: %w", err)
	}
	defer rows.Close()

	var out []domain.KeyPoint
	for rows.Next() {
		kp, err := scanKeyPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning key point: %w", err)
		}
		if filter.Matches(*kp) {
			out = append(out, *kp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating key points: %w", err)
	}
	return out, nil
}

func scanKeyPoint(rows *sql.Rows) (*domain.KeyPoint, error) {
	var kp domain.KeyPoint
	var kind string
	var createdAt int64
	if err := rows.Scan(&kp.ID, &kp.DocumentID, &kind, &kp.Content, &kp.Source,
		&kp.Confidence, &createdAt); err != nil {
		return nil, err
	}
	kp.Type = domain.KeyPointType(kind)
	kp.CreatedAt = fromUnix(createdAt)
	return &kp, nil
}
