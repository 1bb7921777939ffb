// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// StoreFactory returns an empty store. The test closes it.
type StoreFactory func(t *testing.T) driven.Store

// IndexFactory returns an empty index with the given dimension.
type IndexFactory func(t *testing.T, dims int) driven.VectorIndex

var base = time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

func project(id string, at time.Time) *domain.Project {
	return &domain.Project{
		ID: id, Name: "Project " + id, Color: domain.DefaultProjectColor,
		Status: domain.ProjectActive, CreatedAt: at, LastActivityAt: at,
	}
}

func document(id, projectID string, at time.Time) *domain.Document {
	return &domain.Document{
		ID: id, ProjectID: projectID, Name: id + ".txt", SourceType: domain.SourceText,
		Size: 10, Status: domain.StatusProcessing, UploadedAt: at, UpdatedAt: at,
	}
}

// RunStoreTests exercises every driven.Store operation.
func RunStoreTests(t *testing.T, newStore StoreFactory) {
	t.Run("projects", func(t *testing.T) { testProjects(t, newStore(t)) })
	t.Run("documents", func(t *testing.T) { testDocuments(t, newStore(t)) })
	t.Run("content", func(t *testing.T) { testContent(t, newStore(t)) })
	t.Run("key points", func(t *testing.T) { testKeyPoints(t, newStore(t)) })
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("cascade", func(t *testing.T) { testCascade(t, newStore(t)) })
}

func testProjects(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SaveProject(ctx, project("p1", base)))
	require.NoError(t, s.SaveProject(ctx, project("p2", base.Add(time.Hour))))

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Project p1", got.Name)
	assert.Equal(t, domain.ProjectActive, got.Status)
	assert.True(t, got.CreatedAt.Equal(base))

	got.Name = "Renamed"
	got.Status = domain.ProjectArchived
	require.NoError(t, s.SaveProject(ctx, got))
	got, err = s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.ProjectArchived, got.Status)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)

	require.NoError(t, s.TouchProject(ctx, "p1"))
	list, err = s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", list[0].ID)

	_, err = s.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.SummariseProject(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDocuments(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, project("p1", base)))

	require.NoError(t, s.SaveDocument(ctx, document("d1", "p1", base)))
	require.NoError(t, s.SaveDocument(ctx, document("d2", "p1", base.Add(time.Minute))))

	docs, err := s.ListDocuments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID)

	require.NoError(t, s.SetDocumentStatus(ctx, "d1", domain.StatusError, "Unsupported file format"))
	require.NoError(t, s.SetSummary(ctx, "d2", "A meeting."))

	d1, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, d1.Status)
	assert.Equal(t, "Unsupported file format", d1.Error)
	assert.Equal(t, domain.SourceText, d1.SourceType)
	assert.Equal(t, int64(10), d1.Size)

	d2, err := s.GetDocument(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, "A meeting.", d2.Summary)

	assert.ErrorIs(t, s.SetDocumentStatus(ctx, "missing", domain.StatusCompleted, ""), domain.ErrNotFound)

	require.NoError(t, s.DeleteDocument(ctx, "d1"))
	_, err = s.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	summary, err := s.SummariseProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DocumentsCount)
}

func testContent(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, project("p1", base)))
	require.NoError(t, s.SaveDocument(ctx, document("d1", "p1", base)))

	_, _, err := s.GetContent(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveContent(ctx, "d1", []byte("raw bytes"), ""))
	raw, text, err := s.GetContent(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), raw)
	assert.Empty(t, text)

	require.NoError(t, s.SaveContent(ctx, "d1", nil, "normalised"))
	raw, text, err = s.GetContent(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), raw)
	assert.Equal(t, "normalised", text)
}

func testKeyPoints(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, project("p1", base)))
	require.NoError(t, s.SaveProject(ctx, project("p2", base)))
	require.NoError(t, s.SaveDocument(ctx, document("d1", "p1", base)))
	require.NoError(t, s.SaveDocument(ctx, document("d2", "p2", base)))

	kp := func(id, doc string, kind domain.KeyPointType, content string) domain.KeyPoint {
		return domain.KeyPoint{
			ID: id, DocumentID: doc, Type: kind, Content: content,
			Source: doc + ".txt", Confidence: 0.8, CreatedAt: base,
		}
	}

	require.NoError(t, s.ReplaceKeyPoints(ctx, "d1", []domain.KeyPoint{
		kp("k1", "d1", domain.KeyPointPerson, "John Smith"),
		kp("k2", "d1", domain.KeyPointDate, "March 12"),
	}))
	require.NoError(t, s.AppendKeyPoints(ctx, "d1", []domain.KeyPoint{kp("k3", "d1", domain.KeyPointLocation, "Genève")}))
	require.NoError(t, s.ReplaceKeyPoints(ctx, "d2", []domain.KeyPoint{kp("k4", "d2", domain.KeyPointTask, "Call back")}))

	all, err := s.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "John Smith", all[0].Content)
	assert.Equal(t, 0.8, all[0].Confidence)
	assert.Equal(t, "d1.txt", all[0].Source)

	people, err := s.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{Types: []domain.KeyPointType{domain.KeyPointPerson}})
	require.NoError(t, err)
	require.Len(t, people, 1)

	found, err := s.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{Query: "GENÈVE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "k3", found[0].ID)

	bySource, err := s.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{Query: "d1.TXT", DocumentID: "d1"})
	require.NoError(t, err)
	assert.Len(t, bySource, 3)

	require.NoError(t, s.ReplaceKeyPoints(ctx, "d1", nil))
	all, err = s.ListKeyPoints(ctx, "p1", domain.KeyPointFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	summary, err := s.SummariseProject(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.KeyPointsCount)
}

func testMessages(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, project("p1", base)))

	for i := 0; i < 5; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msg := &domain.ChatMessage{
			ID: fmt.Sprintf("m%d", i), ProjectID: "p1", Role: role,
			Content: fmt.Sprintf("message %d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if role == domain.RoleAssistant {
			msg.Sources = []domain.SourceCitation{{DocumentID: "d1", DocumentName: "a.txt", ChunkID: "d1#0", Excerpt: "x", Confidence: 0.5}}
		}
		require.NoError(t, s.AppendMessage(ctx, msg))
	}

	all, err := s.ListMessages(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "message 0", all[0].Content)
	require.Len(t, all[1].Sources, 1)
	assert.Equal(t, "a.txt", all[1].Sources[0].DocumentName)

	last, err := s.ListMessages(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "message 3", last[0].Content)
	assert.Equal(t, "message 4", last[1].Content)

	require.NoError(t, s.ClearMessages(ctx, "p1"))
	all, err = s.ListMessages(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testCascade(t *testing.T, s driven.Store) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, project("p1", base)))
	require.NoError(t, s.SaveDocument(ctx, document("d1", "p1", base)))
	require.NoError(t, s.SaveContent(ctx, "d1", []byte("x"), "x"))
	require.NoError(t, s.ReplaceKeyPoints(ctx, "d1", []domain.KeyPoint{{ID: "k1", DocumentID: "d1", Type: domain.KeyPointTask, Content: "x", CreatedAt: base}}))
	require.NoError(t, s.AppendMessage(ctx, &domain.ChatMessage{ID: "m1", ProjectID: "p1", Role: domain.RoleUser, Content: "hi", CreatedAt: base}))

	require.NoError(t, s.DeleteProject(ctx, "p1"))

	_, err := s.GetProject(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = s.GetContent(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	msgs, err := s.ListMessages(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// RunIndexTests exercises every driven.VectorIndex operation.
func RunIndexTests(t *testing.T, newIndex IndexFactory) {
	t.Run("upsert and search", func(t *testing.T) { testUpsertSearch(t, newIndex(t, 3)) })
	t.Run("idempotent upsert", func(t *testing.T) { testIdempotent(t, newIndex(t, 3)) })
	t.Run("dimension mismatch", func(t *testing.T) { testDimensions(t, newIndex(t, 3)) })
	t.Run("dimension fixed by first upsert", func(t *testing.T) { testLazyDimensions(t, newIndex(t, 0)) })
	t.Run("delete", func(t *testing.T) { testIndexDelete(t, newIndex(t, 3)) })
	t.Run("ties", func(t *testing.T) { testTies(t, newIndex(t, 2)) })
	t.Run("concurrent readers see whole documents", func(t *testing.T) { testSwap(t, newIndex(t, 2)) })
}

func testUpsertSearch(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, "p1", "d1", []domain.ChunkInput{
		{Ordinal: 0, Content: "geneva", Embedding: []float32{1, 0, 0}},
		{Ordinal: 1, Content: "budget", Embedding: []float32{0, 1, 0}},
	}))
	require.NoError(t, x.Upsert(ctx, "p2", "d2", []domain.ChunkInput{
		{Ordinal: 0, Content: "other project", Embedding: []float32{1, 0, 0}},
	}))

	hits, err := x.Search(ctx, "p1", []float32{0.9, 0.1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "d1#0", hits[0].ChunkID)
	assert.Equal(t, "geneva", hits[0].Content)
	assert.Equal(t, "d1", hits[0].DocumentID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 0.9939, hits[0].Score, 0.001)

	hits, err = x.Search(ctx, "p1", []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1#1", hits[0].ChunkID)

	n, err := x.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, x.Dimensions())

	hits, err = x.Search(ctx, "empty", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func testIdempotent(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()
	chunks := []domain.ChunkInput{
		{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0}},
		{Ordinal: 1, Content: "b", Embedding: []float32{0, 1, 0}},
	}

	require.NoError(t, x.Upsert(ctx, "p1", "d1", chunks))
	first, err := x.Search(ctx, "p1", []float32{1, 1, 0}, 10)
	require.NoError(t, err)

	require.NoError(t, x.Upsert(ctx, "p1", "d1", chunks))
	second, err := x.Search(ctx, "p1", []float32{1, 1, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, x.Upsert(ctx, "p1", "d1", chunks[:1]))
	n, err := x.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testDimensions(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()

	err := x.Upsert(ctx, "p1", "d1", []domain.ChunkInput{{Ordinal: 0, Content: "a", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	n, _ := x.Count(ctx, "p1")
	assert.Zero(t, n)

	require.NoError(t, x.Upsert(ctx, "p1", "d1", []domain.ChunkInput{{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0}}}))
	_, err = x.Search(ctx, "p1", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func testLazyDimensions(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()
	assert.Zero(t, x.Dimensions())

	require.NoError(t, x.Upsert(ctx, "p1", "d1", []domain.ChunkInput{{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0, 0}}}))
	assert.Equal(t, 4, x.Dimensions())

	err := x.Upsert(ctx, "p1", "d2", []domain.ChunkInput{{Ordinal: 0, Content: "b", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func testIndexDelete(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()
	require.NoError(t, x.Upsert(ctx, "p1", "d1", []domain.ChunkInput{{Ordinal: 0, Content: "a", Embedding: []float32{1, 0, 0}}}))
	require.NoError(t, x.Upsert(ctx, "p1", "d2", []domain.ChunkInput{{Ordinal: 0, Content: "b", Embedding: []float32{0, 1, 0}}}))
	require.NoError(t, x.Upsert(ctx, "p2", "d3", []domain.ChunkInput{{Ordinal: 0, Content: "c", Embedding: []float32{0, 0, 1}}}))

	require.NoError(t, x.Delete(ctx, "d1"))
	require.NoError(t, x.Delete(ctx, "d1"))
	n, _ := x.Count(ctx, "p1")
	assert.Equal(t, 1, n)

	require.NoError(t, x.DeleteProject(ctx, "p1"))
	n, _ = x.Count(ctx, "p1")
	assert.Zero(t, n)
	n, _ = x.Count(ctx, "p2")
	assert.Equal(t, 1, n)
}

func testTies(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()
	same := []float32{1, 0}
	require.NoError(t, x.Upsert(ctx, "p1", "b", []domain.ChunkInput{
		{Ordinal: 1, Content: "b1", Embedding: same},
		{Ordinal: 0, Content: "b0", Embedding: same},
	}))
	require.NoError(t, x.Upsert(ctx, "p1", "a", []domain.ChunkInput{{Ordinal: 1, Content: "a1", Embedding: same}}))

	hits, err := x.Search(ctx, "p1", same, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"b#0", "a#1", "b#1"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
}

func testSwap(t *testing.T, x driven.VectorIndex) {
	defer x.Close()
	ctx := context.Background()

	version := func(n int) []domain.ChunkInput {
		out := make([]domain.ChunkInput, n)
		for i := range out {
			out[i] = domain.ChunkInput{Ordinal: i, Content: fmt.Sprintf("v%d", n), Embedding: []float32{1, float32(i)}}
		}
		return out
	}
	require.NoError(t, x.Upsert(ctx, "p1", "d1", version(2)))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			n := 2 + i%2
			_ = x.Upsert(ctx, "p1", "d1", version(n))
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		hits, err := x.Search(ctx, "p1", []float32{1, 0}, 10)
		require.NoError(t, err)
		for _, h := range hits {
			assert.Equal(t, fmt.Sprintf("v%d", len(hits)), h.Content, "mixed versions in one search")
		}
	}
}
