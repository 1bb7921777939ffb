package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/vectormath"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const dimensionsKey = "dimensions"

// Index is a brute-force vector index over the chunks table. It shares the
// Store's connection; closing the Store closes it.
type Index struct {
	db *sql.DB

	mu        sync.RWMutex
	dims      int
	persisted bool
}

// NewIndex opens the index held in store. A dims of 0 adopts the stored
// dimension, or is fixed by the first upsert. A dims that disagrees with
// the stored dimension returns ErrDimensionMismatch until the index is
// rebuilt.
func NewIndex(store *Store, dims int) (*Index, error) {
	x := &Index{db: store.db, dims: dims}

	var value string
	err := store.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", dimensionsKey).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return x, nil
	case err != nil:
		return nil, fmt.Errorf("reading index dimensions: %w", err)
	}

	stored, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("parsing index dimensions %q: %w", value, err)
	}
	if dims != 0 && stored != 0 && stored != dims {
		return nil, fmt.Errorf("%w: index holds %d dimensions, embedder produces %d",
			domain.ErrDimensionMismatch, stored, dims)
	}
	x.dims = stored
	x.persisted = true
	return x, nil
}

// Upsert replaces every chunk of documentID in one transaction.
func (x *Index) Upsert(ctx context.Context, projectID, documentID string, inputs []domain.ChunkInput) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	dims := x.dims
	for _, in := range inputs {
		if dims == 0 {
			dims = len(in.Embedding)
		}
		if len(in.Embedding) != dims || dims == 0 {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, in.Ordinal, len(in.Embedding), dims)
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if len(inputs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (document_id, ordinal, project_id, content, embedding)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing chunk insert: %w", err)
		}
		defer stmt.Close()

		for _, in := range inputs {
			if _, err := stmt.ExecContext(ctx, documentID, in.Ordinal, projectID, in.Content,
				float32SliceToBytes(in.Embedding)); err != nil {
				return fmt.Errorf("saving chunk %d: %w", in.Ordinal, err)
			}
		}
	}

	if !x.persisted && dims > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO index_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, dimensionsKey, strconv.Itoa(dims)); err != nil {
			return fmt.Errorf("saving index dimensions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	x.dims = dims
	x.persisted = x.persisted || dims > 0
	return nil
}

// Search returns at most k chunks of projectID by descending similarity.
func (x *Index) Search(ctx context.Context, projectID string, query []float32, k int) ([]domain.SearchHit, error) {
	dims := x.Dimensions()
	if dims == 0 {
		return nil, nil
	}
	if len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), dims)
	}

	rows, err := x.db.QueryContext(ctx,
		"SELECT document_id, ordinal, content, embedding FROM chunks WHERE project_id = ?", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		var blob []byte
		if err := rows.Scan(&hit.DocumentID, &hit.Ordinal, &hit.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != dims {
			continue
		}
		hit.ChunkID = domain.ChunkID(hit.DocumentID, hit.Ordinal)
		hit.Score = vectormath.Cosine(query, embedding)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return vectormath.TopK(hits, k), nil
}

// Delete removes every chunk of documentID.
func (x *Index) Delete(ctx context.Context, documentID string) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteProject removes every chunk of projectID.
func (x *Index) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM chunks WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("deleting project chunks: %w", err)
	}
	return nil
}

// Count returns the number of chunks stored for projectID.
func (x *Index) Count(ctx context.Context, projectID string) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE project_id = ?", projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Dimensions returns the vector size, or 0 before the first upsert.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Close is a no-op; the Store owns the connection.
func (x *Index) Close() error { return nil }

// Reset drops every chunk and forgets the dimension so a new embedding
// model can rebuild the index.
func (x *Index) Reset(ctx context.Context, dims int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_meta WHERE key = ?", dimensionsKey); err != nil {
		return fmt.Errorf("clearing index dimensions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	x.dims = dims
	x.persisted = false
	return nil
}
