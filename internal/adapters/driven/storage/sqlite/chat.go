package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// AppendMessage adds a message to a project conversation.
func (s *Store) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	ok, err := s.exists(ctx, "projects", msg.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	sources, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, project_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ProjectID, string(msg.Role), msg.Content, string(sources), toUnix(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages in chronological order.
// A limit of 0 returns the whole conversation.
func (s *Store) ListMessages(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, role, content, sources, created_at FROM (
			SELECT seq, id, project_id, role, content, sources, created_at
			FROM chat_messages WHERE project_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var role, sources string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ProjectID, &role, &msg.Content, &sources, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.ChatRole(role)
		msg.CreatedAt = fromUnix(createdAt)
		if sources != "" && sources != jsonNull {
			if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
				return nil, fmt.Errorf("unmarshalling sources: %w", err)
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return out, nil
}

// ClearMessages removes a project conversation.
func (s *Store) ClearMessages(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	return nil
}
