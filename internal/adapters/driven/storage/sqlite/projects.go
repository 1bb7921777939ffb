package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// projectSummaryQuery selects a project with its derived counts.
const projectSummaryQuery = `
	SELECT p.id, p.name, p.description, p.color, p.status, p.created_at, p.last_activity_at,
		(SELECT COUNT(*) FROM documents d WHERE d.project_id = p.id),
		(SELECT COUNT(*) FROM key_points k JOIN documents d ON d.id = k.document_id
			WHERE d.project_id = p.id)
	FROM projects p
`

// SaveProject stores or updates a project.
func (s *Store) SaveProject(ctx context.Context, p *domain.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, color, status, created_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			color = excluded.color,
			status = excluded.status,
			last_activity_at = excluded.last_activity_at
	`, p.ID, p.Name, p.Description, p.Color, string(p.Status),
		toUnix(p.CreatedAt), toUnix(p.LastActivityAt))
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	summary, err := s.SummariseProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return &summary.Project, nil
}

// SummariseProject returns one project with derived counts.
func (s *Store) SummariseProject(ctx context.Context, id string) (*domain.ProjectSummary, error) {
	row := s.db.QueryRowContext(ctx, projectSummaryQuery+" WHERE p.id = ?", id)
	summary, err := scanProjectSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return summary, nil
}

// ListProjects returns every project, most recently active first.
func (s *Store) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, projectSummaryQuery+" ORDER BY p.last_activity_at DESC, p.id")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		summary, err := scanProjectSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		out = append(out, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return out, nil
}

// TouchProject bumps the last activity timestamp.
func (s *Store) TouchProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE projects SET last_activity_at = ? WHERE id = ?", time.Now().UnixNano(), id)
	return expectRow(res, err, "project")
}

// DeleteProject removes a project. Documents, their content, key points
// and the conversation go with it through foreign key cascades.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

func scanProjectSummary(row scanner) (*domain.ProjectSummary, error) {
	var summary domain.ProjectSummary
	var status string
	var createdAt, lastActivity int64
	if err := row.Scan(&summary.ID, &summary.Name, &summary.Description, &summary.Color,
		&status, &createdAt, &lastActivity, &summary.DocumentsCount, &summary.KeyPointsCount); err != nil {
		return nil, err
	}
	summary.Status = domain.ProjectStatus(status)
	summary.CreatedAt = fromUnix(createdAt)
	summary.LastActivityAt = fromUnix(lastActivity)
	return &summary, nil
}
