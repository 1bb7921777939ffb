// Package app assembles the driven adapters and core services from
// configuration. Every outer surface (CLI, HTTP, MCP, TUI, watch) runs
// against an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/custodia-labs/docsight/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsight/internal/adapters/driven/embedding/cache"
	promadapter "github.com/custodia-labs/docsight/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/docsight/internal/adapters/driven/nlp/prose"
	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsight/internal/adapters/driven/tokens/tiktoken"
	"github.com/custodia-labs/docsight/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/core/services"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/normalisers"
	"github.com/custodia-labs/docsight/internal/postprocessors"
)

// App holds the wired services of one docsight process.
type App struct {
	Settings Settings

	Projects  driving.ProjectService
	Documents driving.DocumentService
	KeyPoints driving.KeyPointService
	Chat      driving.ChatService
	Search    driving.SearchService

	Metrics *promadapter.Metrics

	// Warnings lists non-fatal issues found while building, such as a
	// provider falling back to the local one.
	Warnings []string

	store     driven.Store
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	processor *services.Processor
	ai        *ai.InitResult

	closeOnce sync.Once
	closeErr  error
}

// indexResetter is implemented by indexes that can be rebuilt for a new
// embedding dimension.
type indexResetter interface {
	Reset(ctx context.Context, dims int) error
}

// New builds an App from settings. prompts may be nil.
func New(ctx context.Context, s Settings, prompts driven.PromptStore) (*App, error) {
	a := &App{Settings: s, Metrics: promadapter.New()}

	if err := a.build(ctx, prompts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, prompts driven.PromptStore) error {
	s := a.Settings

	store, err := openStore(s)
	if err != nil {
		return err
	}
	a.store = store

	opts := ai.Options{
		Timeout:       s.ProviderTimeout,
		RatePerSecond: s.RatePerSecond,
		PromptStore:   prompts,
	}
	if s.CacheAddr != "" {
		redisCache, err := cache.Dial(ctx, s.CacheAddr, s.CacheTTL)
		if err != nil {
			a.warn("embedding cache at %s unavailable, continuing without it: %v", s.CacheAddr, err)
		} else {
			opts.Cache = redisCache
		}
	}

	result, err := ai.Init(s.Embedding, s.LLM, opts)
	if err != nil {
		if closer, ok := opts.Cache.(io.Closer); ok {
			closer.Close()
		}
		return err
	}
	a.ai = result
	a.embedder = result.EmbeddingService
	a.Warnings = append(a.Warnings, result.Warnings...)

	index, err := a.openIndex(ctx, store, a.embedder.Dimensions())
	if err != nil {
		return err
	}
	a.index = index

	counter := tokenCounter(s.LLM)

	pipeline, err := buildPipeline(s, counter)
	if err != nil {
		return err
	}

	extractor := services.NewExtractor(prose.NewRecogniser(), result.LLMService, services.ExtractorConfig{
		UseNER:  s.UseNER,
		UseLLM:  s.UseLLM,
		Timeout: services.DefaultExtractorConfig().Timeout,
	})
	if prompts != nil {
		extractor.SetPromptStore(prompts)
	}

	registry := normalisers.NewDefaultRegistry()
	a.processor = services.NewProcessor(
		store,
		services.NewIngestor(registry, s.ParseTimeout),
		extractor,
		pipeline,
		a.embedder,
		index,
		a.Metrics,
		services.ProcessorConfig{
			Workers:         s.Workers,
			EmbedBatch:      services.DefaultProcessorConfig().EmbedBatch,
			ProviderTimeout: s.ProviderTimeout,
		},
	)
	a.processor.OnComplete(logEvent)

	responder := services.NewResponder(a.embedder, index, result.LLMService, store, counter, a.Metrics,
		services.ResponderConfig{
			TopK:             s.TopK,
			HistoryTurns:     s.HistoryTurns,
			MaxContextTokens: s.MaxContextTokens,
			ProviderTimeout:  s.ProviderTimeout,
		})
	if prompts != nil {
		responder.SetPromptStore(prompts)
	}

	a.Projects = services.NewProjectService(store, index, a.processor)
	a.Documents = services.NewDocumentService(store, index, a.processor, registry)
	a.KeyPoints = services.NewKeyPointService(store)
	a.Chat = services.NewChatService(store, responder)
	a.Search = services.NewSearchService(store, a.embedder, index, a.Metrics)

	if _, err := services.ResumePending(ctx, store, a.processor); err != nil {
		a.warn("resuming pending documents: %v", err)
	}
	return nil
}

func openStore(s Settings) (driven.Store, error) {
	if s.StorageBackend == BackendMemory {
		return memory.NewStore(), nil
	}
	store, err := sqlite.NewStore(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

// openIndex opens the configured index. An index built by a different
// embedding model is opened at its stored dimension so reindex can rebuild
// it; until then searches fail with ErrDimensionMismatch.
func (a *App) openIndex(ctx context.Context, store driven.Store, dims int) (driven.VectorIndex, error) {
	switch a.Settings.IndexBackend {
	case BackendMemory:
		return memory.NewIndex(dims), nil

	case BackendPGVector:
		if a.Settings.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidInput, BackendPGVector, KeyIndexPostgresDSN)
		}
		index, err := pgvector.NewIndex(ctx, a.Settings.PostgresDSN, dims)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			a.warn("%v; run docsight reindex", err)
			return pgvector.NewIndex(ctx, a.Settings.PostgresDSN, 0)
		}
		return index, err

	default:
		sqlStore, ok := store.(*sqlite.Store)
		if !ok {
			a.warn("sqlite index needs the sqlite store, using the memory index")
			return memory.NewIndex(dims), nil
		}
		index, err := sqlite.NewIndex(sqlStore, dims)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Error("%v", err)
			a.warn("%v; run docsight reindex", err)
			return sqlite.NewIndex(sqlStore, 0)
		}
		return index, err
	}
}

// tokenCounter counts with the model's BPE encoding for remote providers.
// The local provider never leaves the machine, so it estimates instead of
// fetching an encoding.
func tokenCounter(llm domain.LLMSettings) driven.TokenCounter {
	if llm.Provider == domain.AIProviderLocal || !llm.IsConfigured() {
		return tiktoken.Estimate{}
	}
	return tiktoken.NewCounterOrEstimate(llm.Model)
}

func buildPipeline(s Settings, counter driven.TokenCounter) (*postprocessors.Pipeline, error) {
	return postprocessors.Defaults().Pipeline(postprocessors.DefaultPipeline, map[string]postprocessors.Options{
		"chunker": {
			"size":          s.ChunkSize,
			"overlap":       s.ChunkOverlap,
			"token_counter": counter,
			"max_tokens":    s.ChunkMaxTokens,
		},
	})
}

func logEvent(e domain.DocumentEvent) {
	switch {
	case e.Discarded:
		logger.Debug("document %s deleted while processing, results discarded", e.DocumentID)
	case e.Err != nil:
		logger.Warn("document %s failed: %v", e.DocumentID, e.Err)
	default:
		logger.Info("document %s %s: %d key points, %d chunks", e.DocumentID, e.Status, e.KeyPoints, e.Chunks)
	}
}

func (a *App) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	a.Warnings = append(a.Warnings, msg)
}

// Handler returns the HTTP API with /metrics served from the App's registry.
func (a *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Ports{
		Projects:  a.Projects,
		Documents: a.Documents,
		KeyPoints: a.KeyPoints,
		Chat:      a.Chat,
		Search:    a.Search,
	}, a.Metrics.Handler())
}

// Reindex clears the vector index and reprocesses every document, for
// example after the embedding model changed. It returns the number of
// documents queued.
func (a *App) Reindex(ctx context.Context) (int, error) {
	if r, ok := a.index.(indexResetter); ok {
		if err := r.Reset(ctx, a.embedder.Dimensions()); err != nil {
			return 0, err
		}
	}

	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, p := range projects {
		docs, err := a.store.ListDocuments(ctx, p.ID)
		if err != nil {
			return queued, err
		}
		for _, doc := range docs {
			if err := a.Documents.Reprocess(ctx, doc.ID); err != nil {
				return queued, fmt.Errorf("reprocessing %s: %w", doc.Name, err)
			}
			queued++
		}
	}
	logger.Info("reindex: queued %d documents", queued)
	return queued, nil
}

// Wait blocks until every queued document has reached a terminal status.
func (a *App) Wait(ctx context.Context) error {
	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		docs, err := a.store.ListDocuments(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if _, err := a.Documents.Wait(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// CheckProviders pings the embedding and generation providers.
func (a *App) CheckProviders(ctx context.Context) map[string]error {
	return map[string]error{
		"embedding": a.ai.EmbeddingService.Ping(ctx),
		"llm":       a.ai.LLMService.Ping(ctx),
	}
}

// Close stops the processor and releases every adapter.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.processor != nil {
			errs = append(errs, a.processor.Close())
		}
		if a.ai != nil {
			a.ai.Close()
		}
		if a.index != nil {
			errs = append(errs, a.index.Close())
		}
		if a.store != nil {
			errs = append(errs, a.store.Close())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
