package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/retry"
)

// Ensure searchService implements the interface.
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface.
type searchService struct {
	store    driven.Store
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	metrics  driven.Metrics
}

// NewSearchService creates a new search service.
func NewSearchService(store driven.Store, embedder driven.EmbeddingService, index driven.VectorIndex, metrics driven.Metrics) driving.SearchService {
	return &searchService{store: store, embedder: embedder, index: index, metrics: metricsOrNop(metrics)}
}

// Search embeds query and returns the top k chunks with document names.
func (s *searchService) Search(ctx context.Context, projectID, query string, k int) ([]driving.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultResponderConfig().TopK
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	vector, err := retry.DoWithResult(ctx, retry.DefaultConfig("query embedding"), func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, projectID, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	s.metrics.RetrievalHits(len(hits))

	names := make(map[string]string)
	results := make([]driving.SearchResult, 0, len(hits))
	for _, hit := range hits {
		name, ok := names[hit.DocumentID]
		if !ok {
			if doc, err := s.store.GetDocument(ctx, hit.DocumentID); err == nil {
				name = doc.Name
			}
			names[hit.DocumentID] = name
		}
		results = append(results, driving.SearchResult{Hit: hit, DocumentName: name})
	}
	return results, nil
}
