package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/storagetest"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestIndex(t *testing.T) {
	storagetest.RunIndexTests(t, func(t *testing.T, dims int) driven.VectorIndex {
		store := newTestStore(t)
		t.Cleanup(func() { store.Close() })
		index, err := NewIndex(store, dims)
		require.NoError(t, err)
		return index
	})
}

func TestNewIndex_RestoresDimensions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	index, err := NewIndex(store, 0)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, "p1", "d1", []domain.ChunkInput{
		{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0}},
	}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	index, err = NewIndex(store, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, index.Dimensions())

	n, err := index.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = NewIndex(store, 8)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	index, err := NewIndex(store, 3)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, "p1", "d1", []domain.ChunkInput{
		{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0}},
	}))

	require.NoError(t, index.Reset(ctx, 2))
	assert.Equal(t, 2, index.Dimensions())
	n, err := index.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, index.Upsert(ctx, "p1", "d1", []domain.ChunkInput{
		{Ordinal: 0, Content: "a", Embedding: []float32{1, 0}},
	}))
	again, err := NewIndex(store, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Dimensions())
}
