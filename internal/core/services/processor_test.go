package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// gatedEmbedder blocks EmbedBatch until gate is closed.
type gatedEmbedder struct {
	mockEmbedder
	gate    chan struct{}
	entered chan struct{}
}

func newGatedEmbedder() *gatedEmbedder {
	return &gatedEmbedder{gate: make(chan struct{}), entered: make(chan struct{}, 8)}
}

func (g *gatedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	g.entered <- struct{}{}
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.mockEmbedder.EmbedBatch(ctx, texts)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.DocumentEvent
}

func (r *eventRecorder) record(e domain.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []domain.DocumentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DocumentEvent(nil), r.events...)
}

type processorFixture struct {
	store     *mockStore
	index     *mockIndex
	processor *Processor
	events    *eventRecorder
}

func newProcessorFixture(t *testing.T, embedder driven.EmbeddingService) *processorFixture {
	t.Helper()
	f := &processorFixture{store: newMockStore(), index: newMockIndex(), events: &eventRecorder{}}

	f.processor = NewProcessor(
		f.store,
		NewIngestor(&mockRegistry{}, 0),
		NewExtractor(nil, nil, ExtractorConfig{}),
		paragraphPipeline{},
		embedder,
		f.index,
		nil,
		ProcessorConfig{Workers: 2},
	)
	f.processor.OnComplete(f.events.record)
	t.Cleanup(func() { _ = f.processor.Close() })

	require.NoError(t, f.store.SaveProject(context.Background(), &domain.Project{ID: "p1", Name: "Board"}))
	return f
}

func (f *processorFixture) addDocument(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.store.SaveDocument(context.Background(), &domain.Document{
		ID: id, ProjectID: "p1", Name: name, Status: domain.StatusProcessing, UploadedAt: time.Now(),
	}))
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestProcessor_Success(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	f.addDocument(t, "d1", "minutes.txt")

	content := "Meeting with John Smith on March 12 in Geneva.\n\nWe must send the contract."
	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte(content), "minutes.txt"))
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	doc, err := f.store.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Empty(t, doc.Error)
	assert.NotEmpty(t, doc.Summary)

	kps, err := f.store.ListKeyPoints(context.Background(), "p1", domain.KeyPointFilter{})
	require.NoError(t, err)
	assert.NotNil(t, findKeyPoint(kps, domain.KeyPointPerson, "John Smith"))
	for _, kp := range kps {
		assert.Equal(t, "d1", kp.DocumentID)
	}

	count, err := f.index.Count(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, text, err := f.store.GetContent(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, content, text)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusCompleted, events[0].Status)
	assert.Equal(t, "p1", events[0].ProjectID)
	assert.Equal(t, 2, events[0].Chunks)
	assert.False(t, events[0].Discarded)

	state, ok := f.processor.State("d1")
	require.True(t, ok)
	assert.Equal(t, domain.StageDone, state.Stage)
}

func TestProcessor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		message  string
	}{
		{"unsupported format", "photo.png", "x", "Unsupported file format"},
		{"corrupt file", "empty.txt", "   ", "The file could not be read: corrupt file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProcessorFixture(t, &mockEmbedder{})
			f.addDocument(t, "d1", tt.filename)

			require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte(tt.content), tt.filename))
			require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

			doc, err := f.store.GetDocument(context.Background(), "d1")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusError, doc.Status)
			assert.Equal(t, tt.message, doc.Error)

			events := f.events.all()
			require.Len(t, events, 1)
			assert.Equal(t, domain.StatusError, events[0].Status)
			assert.Error(t, events[0].Err)

			state, _ := f.processor.State("d1")
			assert.Equal(t, domain.StageFailed, state.Stage)
		})
	}
}

func TestProcessor_RetriesTransientEmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{failures: 1, err: fmt.Errorf("%w: 503", domain.ErrProviderError)}
	f := newProcessorFixture(t, embedder)
	f.addDocument(t, "d1", "a.txt")

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Some text."), "a.txt"))
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	doc, _ := f.store.GetDocument(context.Background(), "d1")
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, 2, embedder.calls)
}

func TestProcessor_DimensionMismatch(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	f.index.dims = 3
	f.addDocument(t, "d1", "a.txt")

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Some text."), "a.txt"))
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	doc, _ := f.store.GetDocument(context.Background(), "d1")
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Error, "dimension mismatch")

	kps, _ := f.store.ListKeyPoints(context.Background(), "p1", domain.KeyPointFilter{})
	assert.Empty(t, kps)
}

func TestProcessor_DiscardsDeletedDocument(t *testing.T) {
	embedder := newGatedEmbedder()
	f := newProcessorFixture(t, embedder)
	f.addDocument(t, "d1", "a.txt")

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Meeting with John Smith."), "a.txt"))
	<-embedder.entered

	f.processor.Forget("d1")
	require.NoError(t, f.store.DeleteDocument(context.Background(), "d1"))
	close(embedder.gate)
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	count, _ := f.index.Count(context.Background(), "p1")
	assert.Zero(t, count)
	kps, _ := f.store.ListKeyPoints(context.Background(), "p1", domain.KeyPointFilter{})
	assert.Empty(t, kps)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].Discarded)
}

func TestProcessor_SameDocumentRunsSequentially(t *testing.T) {
	embedder := newGatedEmbedder()
	f := newProcessorFixture(t, embedder)
	f.addDocument(t, "d1", "a.txt")

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("First version."), "a.txt"))
	<-embedder.entered
	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Second version."), "a.txt"))

	state, ok := f.processor.State("d1")
	require.True(t, ok)
	assert.Equal(t, domain.StageExtracting, state.Stage)
	assert.Equal(t, 1, state.Queued)

	close(embedder.gate)
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	events := f.events.all()
	require.Len(t, events, 2)
	_, text, _ := f.store.GetContent(context.Background(), "d1")
	assert.Equal(t, "Second version.", text)
}

func TestProcessor_ManyDocuments(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("d%d", i)
		f.addDocument(t, id, id+".txt")
		require.NoError(t, f.processor.Submit(context.Background(), id, []byte("Text number "+id+"."), id+".txt"))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, f.processor.Wait(waitCtx(t), fmt.Sprintf("d%d", i)))
	}

	assert.Len(t, f.events.all(), 10)
	count, _ := f.index.Count(context.Background(), "p1")
	assert.Equal(t, 10, count)
}

func TestProcessor_FailedCommitLeavesNothingSearchable(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	f.addDocument(t, "d1", "minutes.txt")

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Meeting with John Smith."), "minutes.txt"))
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))
	count, _ := f.index.Count(context.Background(), "p1")
	require.Equal(t, 1, count)

	f.store.mu.Lock()
	f.store.replaceErr = errors.New("disk full")
	f.store.mu.Unlock()

	require.NoError(t, f.processor.Submit(context.Background(), "d1", []byte("Meeting with Jane Roe."), "minutes.txt"))
	require.NoError(t, f.processor.Wait(waitCtx(t), "d1"))

	doc, err := f.store.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Error, "disk full")

	count, _ = f.index.Count(context.Background(), "p1")
	assert.Zero(t, count)
	hits, _ := f.index.Search(context.Background(), "p1", hashVector("Jane Roe"), 5)
	assert.Empty(t, hits)
}

func TestProcessor_CloseWaitsForQueuedTasks(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	const n = 20
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("d%d", i)
		f.addDocument(t, id, id+".txt")
		require.NoError(t, f.processor.Submit(context.Background(), id, []byte("Text number "+id+"."), id+".txt"))
	}

	require.NoError(t, f.processor.Close())

	assert.Len(t, f.events.all(), n)
	for i := 0; i < n; i++ {
		doc, err := f.store.GetDocument(context.Background(), fmt.Sprintf("d%d", i))
		require.NoError(t, err)
		assert.NotEqual(t, domain.StatusProcessing, doc.Status, "document %s left processing", doc.ID)
	}
}

func TestProcessor_SubmitAfterClose(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	require.NoError(t, f.processor.Close())

	err := f.processor.Submit(context.Background(), "d1", []byte("x"), "a.txt")
	assert.ErrorIs(t, err, ErrProcessorClosed)
}

func TestProcessor_WaitUnknownDocument(t *testing.T) {
	f := newProcessorFixture(t, &mockEmbedder{})
	assert.NoError(t, f.processor.Wait(context.Background(), "nope"))

	_, ok := f.processor.State("nope")
	assert.False(t, ok)
}
