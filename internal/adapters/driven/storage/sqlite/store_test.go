package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/storagetest"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore(t *testing.T) {
	storagetest.RunStoreTests(t, func(t *testing.T) driven.Store { return newTestStore(t) })
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, store.Path())
	assert.Contains(t, store.Path(), DatabaseFile)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	at := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveProject(ctx, &domain.Project{
		ID: "p1", Name: "Audit", Color: domain.DefaultProjectColor,
		Status: domain.ProjectActive, CreatedAt: at, LastActivityAt: at,
	}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	p, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Audit", p.Name)
	assert.True(t, p.CreatedAt.Equal(at))

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestStore_DocumentNeedsProject(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	err := store.SaveDocument(context.Background(), &domain.Document{ID: "d1", ProjectID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.SaveContent(context.Background(), "d1", []byte("x"), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_AppendKeyPointsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.SaveProject(ctx, &domain.Project{ID: "p1", Name: "p", Color: "#000000"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d1", ProjectID: "p1", Name: "a.txt"}))

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, store.AppendKeyPoints(ctx, "d1", []domain.KeyPoint{
			{ID: content, DocumentID: "d1", Type: domain.KeyPointTask, Content: content},
		}))
	}

	kps, err := store.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{})
	require.NoError(t, err)
	require.Len(t, kps, 3)
	assert.Equal(t, "first", kps[0].Content)
	assert.Equal(t, "third", kps[2].Content)
}

func TestFloat32Blob(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Empty(t, bytesToFloat32Slice(nil))
}
