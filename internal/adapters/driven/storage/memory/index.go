package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/vectormath"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type indexedDocument struct {
	projectID string
	chunks    []domain.Chunk
}

// Index is a brute-force in-memory vector index. Each upsert swaps the
// whole chunk slice of a document under the write lock.
type Index struct {
	mu   sync.RWMutex
	docs map[string]indexedDocument
	dims int
}

// NewIndex creates an index. A dims of 0 is fixed by the first upsert.
func NewIndex(dims int) *Index {
	return &Index{docs: make(map[string]indexedDocument), dims: dims}
}

// Upsert replaces every chunk of documentID.
func (x *Index) Upsert(_ context.Context, projectID, documentID string, inputs []domain.ChunkInput) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	dims := x.dims
	chunks := make([]domain.Chunk, 0, len(inputs))
	for _, in := range inputs {
		if dims == 0 {
			dims = len(in.Embedding)
		}
		if len(in.Embedding) != dims || dims == 0 {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, in.Ordinal, len(in.Embedding), dims)
		}
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, in.Ordinal),
			DocumentID: documentID,
			ProjectID:  projectID,
			Ordinal:    in.Ordinal,
			Content:    in.Content,
			Embedding:  append([]float32(nil), in.Embedding...),
		})
	}

	x.dims = dims
	x.docs[documentID] = indexedDocument{projectID: projectID, chunks: chunks}
	return nil
}

// Search returns at most k chunks of projectID by descending similarity.
func (x *Index) Search(_ context.Context, projectID string, query []float32, k int) ([]domain.SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.dims == 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), x.dims)
	}

	var hits []domain.SearchHit
	for _, doc := range x.docs {
		if doc.projectID != projectID {
			continue
		}
		for _, c := range doc.chunks {
			hits = append(hits, domain.SearchHit{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Ordinal:    c.Ordinal,
				Content:    c.Content,
				Score:      vectormath.Cosine(query, c.Embedding),
			})
		}
	}
	return vectormath.TopK(hits, k), nil
}

// Delete removes every chunk of documentID.
func (x *Index) Delete(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, documentID)
	return nil
}

// DeleteProject removes every chunk of projectID.
func (x *Index) DeleteProject(_ context.Context, projectID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, doc := range x.docs {
		if doc.projectID == projectID {
			delete(x.docs, id)
		}
	}
	return nil
}

// Count returns the number of chunks stored for projectID.
func (x *Index) Count(_ context.Context, projectID string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, doc := range x.docs {
		if doc.projectID == projectID {
			n += len(doc.chunks)
		}
	}
	return n, nil
}

// Dimensions returns the vector size, or 0 before the first upsert.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Close is a no-op.
func (x *Index) Close() error { return nil }
