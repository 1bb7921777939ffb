package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure projectService implements the interface.
var _ driving.ProjectService = (*projectService)(nil)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// projectService implements the ProjectService interface.
type projectService struct {
	store     driven.Store
	index     driven.VectorIndex
	processor *Processor
}

// NewProjectService creates a new project service.
func NewProjectService(store driven.Store, index driven.VectorIndex, processor *Processor) driving.ProjectService {
	return &projectService{store: store, index: index, processor: processor}
}

// Create adds a new active project.
func (s *projectService) Create(ctx context.Context, name, description, color string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}
	if color == "" {
		color = domain.DefaultProjectColor
	}
	if !hexColor.MatchString(color) {
		return nil, fmt.Errorf("%w: color must look like #RRGGBB", domain.ErrInvalidInput)
	}

	now := time.Now()
	project := &domain.Project{
		ID:             uuid.New().String(),
		Name:           name,
		Description:    strings.TrimSpace(description),
		Color:          color,
		Status:         domain.ProjectActive,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.store.SaveProject(ctx, project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	logger.Info("created project %s (%s)", project.Name, project.ID)
	return project, nil
}

// Get returns a project with derived counts.
func (s *projectService) Get(ctx context.Context, id string) (*domain.ProjectSummary, error) {
	return s.store.SummariseProject(ctx, id)
}

// List returns every project with derived counts.
func (s *projectService) List(ctx context.Context) ([]domain.ProjectSummary, error) {
	return s.store.ListProjects(ctx)
}

// Update changes the editable fields.
func (s *projectService) Update(ctx context.Context, id string, update driving.ProjectUpdate) (*domain.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
		}
		project.Name = name
	}
	if update.Description != nil {
		project.Description = strings.TrimSpace(*update.Description)
	}
	if update.Color != nil {
		if !hexColor.MatchString(*update.Color) {
			return nil, fmt.Errorf("%w: color must look like #RRGGBB", domain.ErrInvalidInput)
		}
		project.Color = *update.Color
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *update.Status)
		}
		project.Status = *update.Status
	}

	if err := s.store.SaveProject(ctx, project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// Archive sets the project status to archived.
func (s *projectService) Archive(ctx context.Context, id string) error {
	status := domain.ProjectArchived
	_, err := s.Update(ctx, id, driving.ProjectUpdate{Status: &status})
	return err
}

// Delete removes a project with its documents, key points, chunks and chat.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return err
	}

	docs, err := s.store.ListDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if s.processor != nil {
		for _, doc := range docs {
			s.processor.Forget(doc.ID)
		}
	}

	if err := s.index.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	logger.Info("deleted project %s with %d documents", id, len(docs))
	return nil
}
