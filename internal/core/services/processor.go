package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/retry"
)

// DefaultWorkers bounds concurrent document processing.
const DefaultWorkers = 4

// ErrProcessorClosed is returned by Submit after Close.
var ErrProcessorClosed = errors.New("processor closed")

// ProcessorConfig tunes the worker pool.
type ProcessorConfig struct {
	// Workers is the number of documents processed at once.
	Workers int

	// EmbedBatch is the number of chunks embedded per provider call.
	EmbedBatch int

	// ProviderTimeout bounds one embedding call. Zero means no limit.
	ProviderTimeout time.Duration
}

// DefaultProcessorConfig returns the default pool settings.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{Workers: DefaultWorkers, EmbedBatch: 32, ProviderTimeout: 60 * time.Second}
}

// docTask serialises processing of one document. While a task runs,
// further submissions for the same document wait in pending.
type docTask struct {
	stage   domain.TaskStage
	pending []submission
	done    chan struct{}
}

type submission struct {
	documentID string
	filename   string
	content    []byte
}

// Processor runs the ingestion pipeline on a bounded worker pool.
//
// A task normalises the document, then extracts key points while chunking
// and embedding in parallel, then commits everything if the document still
// exists. At most one task per document runs at a time.
type Processor struct {
	store     driven.Store
	ingestor  *Ingestor
	extractor *Extractor
	pipeline  driven.PostProcessorPipeline
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	metrics   driven.Metrics
	config    ProcessorConfig

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	// inflight counts submitted drains, including those still waiting for
	// a worker slot. It is incremented under mu so Close sees every one.
	inflight sync.WaitGroup

	mu        sync.Mutex
	tasks     map[string]*docTask
	finished  map[string]domain.TaskStage
	callbacks []func(domain.DocumentEvent)
	closed    bool

	// commitMu makes a commit and a deletion of the same document mutually
	// exclusive, and guards removed.
	commitMu sync.Mutex
	removed  map[string]struct{}
}

// NewProcessor creates a processor and starts its pool.
func NewProcessor(
	store driven.Store,
	ingestor *Ingestor,
	extractor *Extractor,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	metrics driven.Metrics,
	config ProcessorConfig,
) *Processor {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.EmbedBatch <= 0 {
		config.EmbedBatch = DefaultProcessorConfig().EmbedBatch
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Processor{
		store:     store,
		ingestor:  ingestor,
		extractor: extractor,
		pipeline:  pipeline,
		embedder:  embedder,
		index:     index,
		metrics:   metricsOrNop(metrics),
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		tasks:     make(map[string]*docTask),
		finished:  make(map[string]domain.TaskStage),
		removed:   make(map[string]struct{}),
	}
	p.group.SetLimit(config.Workers)
	return p
}

// OnComplete registers a callback invoked once per task with its terminal
// status. Callbacks run on the worker goroutine and must not block.
func (p *Processor) OnComplete(fn func(domain.DocumentEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

// Submit queues a processing task and returns immediately.
func (p *Processor) Submit(ctx context.Context, documentID string, content []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sub := submission{documentID: documentID, filename: filename, content: content}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProcessorClosed
	}
	delete(p.finished, documentID)
	if t, ok := p.tasks[documentID]; ok {
		t.pending = append(t.pending, sub)
		p.mu.Unlock()
		logger.Debug("document %s already processing, queued behind it", documentID)
		return nil
	}
	t := &docTask{stage: domain.StageQueued, done: make(chan struct{})}
	p.tasks[documentID] = t
	p.inflight.Add(1)
	p.mu.Unlock()

	p.commitMu.Lock()
	delete(p.removed, documentID)
	p.commitMu.Unlock()

	// Go blocks while every worker is busy.
	go p.group.Go(func() error {
		defer p.inflight.Done()
		p.drain(t, sub)
		return nil
	})
	return nil
}

// drain runs sub, then every submission queued behind it.
func (p *Processor) drain(t *docTask, sub submission) {
	for {
		stage := p.run(t, sub)

		p.mu.Lock()
		if len(t.pending) > 0 {
			sub = t.pending[0]
			t.pending = t.pending[1:]
			t.stage = domain.StageQueued
			p.mu.Unlock()
			continue
		}
		delete(p.tasks, sub.documentID)
		p.finished[sub.documentID] = stage
		close(t.done)
		p.mu.Unlock()
		return
	}
}

// State returns the stage of the running or last finished task.
func (p *Processor) State(documentID string) (domain.TaskState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.tasks[documentID]; ok {
		return domain.TaskState{DocumentID: documentID, Stage: t.stage, Queued: len(t.pending)}, true
	}
	if stage, ok := p.finished[documentID]; ok {
		return domain.TaskState{DocumentID: documentID, Stage: stage}, true
	}
	return domain.TaskState{}, false
}

// Wait blocks until no task for documentID is running or queued.
func (p *Processor) Wait(ctx context.Context, documentID string) error {
	for {
		p.mu.Lock()
		t, ok := p.tasks[documentID]
		p.mu.Unlock()
		if !ok {
			return nil
		}
		select {
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Forget marks a document as deleted. A running task discards its results
// instead of committing them. It blocks while a commit for the document is
// in progress.
func (p *Processor) Forget(documentID string) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	p.removed[documentID] = struct{}{}
}

// Close stops accepting work, cancels running tasks and waits for every
// submitted task, queued ones included, to record its outcome.
func (p *Processor) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.inflight.Wait()
	return p.group.Wait()
}

func (p *Processor) setStage(t *docTask, stage domain.TaskStage) {
	p.mu.Lock()
	t.stage = stage
	p.mu.Unlock()
}

// run processes one submission and reports its terminal stage.
func (p *Processor) run(t *docTask, sub submission) domain.TaskStage {
	start := time.Now()
	ctx := p.ctx
	event := p.process(ctx, t, sub)

	stage := domain.StageDone
	if event.Status == domain.StatusError {
		stage = domain.StageFailed
	}
	p.setStage(t, stage)

	elapsed := time.Since(start)
	if !event.Discarded {
		p.metrics.DocumentProcessed(event.Status, elapsed)
	}
	logger.Info("document %s %s in %s (%d key points, %d chunks)",
		sub.documentID, stage, elapsed.Round(time.Millisecond), event.KeyPoints, event.Chunks)

	p.mu.Lock()
	callbacks := append([]func(domain.DocumentEvent){}, p.callbacks...)
	p.mu.Unlock()
	for _, fn := range callbacks {
		fn(event)
	}
	return stage
}

type extraction struct {
	keyPoints []domain.KeyPoint
	summary   string
}

func (p *Processor) process(ctx context.Context, t *docTask, sub submission) domain.DocumentEvent {
	event := domain.DocumentEvent{DocumentID: sub.documentID}
	if err := ctx.Err(); err != nil {
		return p.fail(ctx, event, fmt.Errorf("not started: %w", err))
	}

	doc, err := p.store.GetDocument(ctx, sub.documentID)
	if err != nil {
		event.Discarded = errors.Is(err, domain.ErrNotFound)
		event.Status = domain.StatusError
		event.Err = err
		return event
	}
	event.ProjectID = doc.ProjectID

	p.setStage(t, domain.StageNormalising)
	text, err := p.ingestor.Normalise(ctx, doc.ID, sub.content, sub.filename)
	if err != nil {
		return p.fail(ctx, event, err)
	}

	p.setStage(t, domain.StageExtracting)
	var (
		ext    extraction
		chunks []domain.ChunkInput
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kps, summary, err := p.extractor.Extract(gctx, text.Content, doc.Name)
		ext = extraction{keyPoints: kps, summary: summary}
		return err
	})
	g.Go(func() error {
		var err error
		chunks, err = p.chunkAndEmbed(gctx, text)
		return err
	})
	if err := g.Wait(); err != nil {
		return p.fail(ctx, event, err)
	}

	p.setStage(t, domain.StageIndexing)
	return p.commit(ctx, event, doc, text, ext, chunks)
}

func (p *Processor) chunkAndEmbed(ctx context.Context, text *domain.NormalisedText) ([]domain.ChunkInput, error) {
	chunks, err := p.pipeline.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	inputs := make([]domain.ChunkInput, len(chunks))
	for start := 0; start < len(chunks); start += p.config.EmbedBatch {
		end := start + p.config.EmbedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		vectors, err := retry.DoWithResult(ctx, retry.DefaultConfig("embed chunks"), func(ctx context.Context) ([][]float32, error) {
			callStart := time.Now()
			callCtx, cancel := p.providerContext(ctx)
			defer cancel()
			vectors, err := p.embedder.EmbedBatch(callCtx, texts)
			p.metrics.ProviderCall(p.embedder.ModelName(), "embed", err, time.Since(callStart))
			return vectors, err
		})
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrProviderError, len(vectors), len(texts))
		}
		for i, c := range chunks[start:end] {
			inputs[start+i] = domain.ChunkInput{Ordinal: c.Ordinal, Content: c.Content, Embedding: vectors[i]}
		}
	}
	return inputs, nil
}

func (p *Processor) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.ProviderTimeout > 0 {
		return context.WithTimeout(ctx, p.config.ProviderTimeout)
	}
	return context.WithCancel(ctx)
}

// exists reports whether the document may still receive results.
// Callers hold commitMu.
func (p *Processor) exists(ctx context.Context, documentID string) bool {
	if _, gone := p.removed[documentID]; gone {
		return false
	}
	_, err := p.store.GetDocument(ctx, documentID)
	return err == nil
}

func (p *Processor) commit(
	ctx context.Context,
	event domain.DocumentEvent,
	doc *domain.Document,
	text *domain.NormalisedText,
	ext extraction,
	chunks []domain.ChunkInput,
) domain.DocumentEvent {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if !p.exists(ctx, doc.ID) {
		logger.Info("document %s was deleted during processing, discarding results", doc.ID)
		event.Discarded = true
		event.Status = domain.StatusCompleted
		return event
	}

	for i := range ext.keyPoints {
		ext.keyPoints[i].DocumentID = doc.ID
	}

	// The index goes last among the writes: a document whose store writes
	// failed must not become searchable.
	steps := []struct {
		name string
		fn   func() error
	}{
		{"store text", func() error { return p.store.SaveContent(ctx, doc.ID, nil, text.Content) }},
		{"store key points", func() error { return p.store.ReplaceKeyPoints(ctx, doc.ID, ext.keyPoints) }},
		{"store summary", func() error { return p.store.SetSummary(ctx, doc.ID, ext.summary) }},
		{"index chunks", func() error { return p.index.Upsert(ctx, doc.ProjectID, doc.ID, chunks) }},
		{"set status", func() error {
			return p.store.SetDocumentStatus(ctx, doc.ID, domain.StatusCompleted, "")
		}},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			// Chunks from this or an earlier run would keep a failed
			// document citable.
			if derr := p.index.Delete(context.WithoutCancel(ctx), doc.ID); derr != nil {
				logger.Error("document %s: drop chunks after failed commit: %v", doc.ID, derr)
			}
			return p.failLocked(ctx, event, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	_ = p.store.TouchProject(ctx, doc.ProjectID)

	counts := make(map[domain.KeyPointType]int)
	for _, kp := range ext.keyPoints {
		counts[kp.Type]++
	}
	for kind, n := range counts {
		p.metrics.KeyPointsExtracted(kind, n)
	}

	event.Status = domain.StatusCompleted
	event.KeyPoints = len(ext.keyPoints)
	event.Chunks = len(chunks)
	return event
}

func (p *Processor) fail(ctx context.Context, event domain.DocumentEvent, err error) domain.DocumentEvent {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	return p.failLocked(ctx, event, err)
}

func (p *Processor) failLocked(ctx context.Context, event domain.DocumentEvent, err error) domain.DocumentEvent {
	event.Status = domain.StatusError
	event.Err = err

	if errors.Is(err, domain.ErrDimensionMismatch) {
		logger.Error("document %s: %v (check embedding.provider and index.dimensions)", event.DocumentID, err)
	} else {
		logger.Warn("document %s failed: %v", event.DocumentID, err)
	}

	// The status write must land even when the pool is shutting down.
	ctx = context.WithoutCancel(ctx)
	if !p.exists(ctx, event.DocumentID) {
		event.Discarded = true
		return event
	}
	if serr := p.store.SetDocumentStatus(ctx, event.DocumentID, domain.StatusError, errorMessage(err)); serr != nil {
		logger.Error("document %s: record failure: %v", event.DocumentID, serr)
	}
	return event
}

// errorMessage turns a failure into the text shown next to the document.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "Unsupported file format"
	case errors.Is(err, domain.ErrCorruptFile):
		return "The file could not be read: " + err.Error()
	case errors.Is(err, domain.ErrTimeout):
		return "Processing timed out"
	case errors.Is(err, domain.ErrExtractionUnavailable):
		return "Key point extraction is unavailable: " + err.Error()
	default:
		return err.Error()
	}
}
