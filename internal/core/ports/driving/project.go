package driving

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// ProjectService manages projects.
type ProjectService interface {
	// Create adds a new active project.
	Create(ctx context.Context, name, description, color string) (*domain.Project, error)

	// Get returns a project with derived counts.
	Get(ctx context.Context, id string) (*domain.ProjectSummary, error)

	// List returns every project with derived counts.
	List(ctx context.Context) ([]domain.ProjectSummary, error)

	// Update changes the editable fields. Nil fields are left untouched.
	Update(ctx context.Context, id string, update ProjectUpdate) (*domain.Project, error)

	// Archive sets the project status to archived.
	Archive(ctx context.Context, id string) error

	// Delete removes a project and everything it owns.
	Delete(ctx context.Context, id string) error
}

// ProjectUpdate carries optional project field changes.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Status      *domain.ProjectStatus
}
