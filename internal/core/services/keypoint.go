package services

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// Ensure keyPointService implements the interface.
var _ driving.KeyPointService = (*keyPointService)(nil)

type keyPointService struct {
	store driven.Store
}

// NewKeyPointService creates a new key point service.
func NewKeyPointService(store driven.Store) driving.KeyPointService {
	return &keyPointService{store: store}
}

// List returns the key points of a project matching filter.
func (s *keyPointService) List(ctx context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListKeyPoints(ctx, projectID, filter)
}

// Stats counts the key points of a project per type.
func (s *keyPointService) Stats(ctx context.Context, projectID string) (domain.KeyPointStats, error) {
	kps, err := s.List(ctx, projectID, domain.KeyPointFilter{})
	if err != nil {
		return domain.KeyPointStats{}, err
	}
	return domain.NewKeyPointStats(kps), nil
}
