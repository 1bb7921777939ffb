// Package pgvector provides a PostgreSQL vector index using the pgvector
// extension. Chunks live in docsight_chunks; ranking uses cosine distance.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/vectormath"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const dimensionsKey = "dimensions"

const schema = `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS docsight_chunks (
		document_id TEXT NOT NULL,
		ordinal     INTEGER NOT NULL,
		project_id  TEXT NOT NULL,
		content     TEXT NOT NULL,
		embedding   vector NOT NULL,
		PRIMARY KEY (document_id, ordinal)
	);

	CREATE INDEX IF NOT EXISTS idx_docsight_chunks_project ON docsight_chunks(project_id);

	CREATE TABLE IF NOT EXISTS docsight_index_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

// Index is a driven.VectorIndex backed by a pgx connection pool.
type Index struct {
	pool *pgxpool.Pool

	mu        sync.RWMutex
	dims      int
	persisted bool
}

// NewIndex connects to dsn, creates the tables if needed and loads the
// stored dimension. A dims of 0 adopts the stored dimension.
func NewIndex(ctx context.Context, dsn string, dims int) (*Index, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating vector tables: %w", err)
	}

	x := &Index{pool: pool, dims: dims}

	var value string
	err = pool.QueryRow(ctx, "SELECT value FROM docsight_index_meta WHERE key = $1", dimensionsKey).Scan(&value)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return x, nil
	case err != nil:
		pool.Close()
		return nil, fmt.Errorf("reading index dimensions: %w", err)
	}

	stored, err := strconv.Atoi(value)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parsing index dimensions %q: %w", value, err)
	}
	if dims != 0 && stored != dims {
		pool.Close()
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

	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM docsight_chunks WHERE document_id = $1", documentID)
	for _, in := range inputs {
		batch.Queue(`
			INSERT INTO docsight_chunks (document_id, ordinal, project_id, content, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, documentID, in.Ordinal, projectID, in.Content, pgvector.NewVector(in.Embedding))
	}
	if !x.persisted && dims > 0 {
		batch.Queue(`
			INSERT INTO docsight_index_meta (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, dimensionsKey, strconv.Itoa(dims))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	x.dims = dims
	x.persisted = x.persisted || dims > 0
	return nil
}

// Search returns at most k chunks of projectID by descending similarity.
// Postgres orders by cosine distance; ties are re-ranked locally so the
// order matches the other indexes.
func (x *Index) Search(ctx context.Context, projectID string, query []float32, k int) ([]domain.SearchHit, error) {
	dims := x.Dimensions()
	if dims == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), dims)
	}

	rows, err := x.pool.Query(ctx, `
		SELECT document_id, ordinal, content, 1 - (embedding <=> $2) AS score
		FROM docsight_chunks
		WHERE project_id = $1
		ORDER BY embedding <=> $2, ordinal, document_id
		LIMIT $3
	`, projectID, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		if err := rows.Scan(&hit.DocumentID, &hit.Ordinal, &hit.Content, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hit.ChunkID = domain.ChunkID(hit.DocumentID, hit.Ordinal)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return vectormath.TopK(hits, k), nil
}

// Delete removes every chunk of documentID.
func (x *Index) Delete(ctx context.Context, documentID string) error {
	if _, err := x.pool.Exec(ctx, "DELETE FROM docsight_chunks WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteProject removes every chunk of projectID.
func (x *Index) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := x.pool.Exec(ctx, "DELETE FROM docsight_chunks WHERE project_id = $1", projectID); err != nil {
		return fmt.Errorf("deleting project chunks: %w", err)
	}
	return nil
}

// Count returns the number of chunks stored for projectID.
func (x *Index) Count(ctx context.Context, projectID string) (int, error) {
	var n int
	if err := x.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM docsight_chunks WHERE project_id = $1", projectID).Scan(&n); err != nil {
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

// Reset drops every chunk and forgets the dimension.
func (x *Index) Reset(ctx context.Context, dims int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := x.pool.Exec(ctx, "TRUNCATE docsight_chunks; DELETE FROM docsight_index_meta"); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	x.dims = dims
	x.persisted = false
	return nil
}

// Close releases the connection pool.
func (x *Index) Close() error {
	x.pool.Close()
	return nil
}
