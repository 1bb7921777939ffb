package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// projectEnv names the default project for commands that take --project.
const projectEnv = "DOCSIGHT_PROJECT"

// resolveProject finds a project by ID, or by case-insensitive name.
func resolveProject(cmd *cobra.Command, ref string) (*domain.ProjectSummary, error) {
	if projectService == nil {
		return nil, errors.New("project service not configured")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("project is required: pass --project or set " + projectEnv)
	}

	project, err := projectService.Get(cmd.Context(), ref)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	projects, err := projectService.List(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var match *domain.ProjectSummary
	for i := range projects {
		if !strings.EqualFold(projects[i].Name, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("several projects are named %q, use the project ID", ref)
		}
		match = &projects[i]
	}
	if match == nil {
		return nil, fmt.Errorf("project %q: %w", ref, domain.ErrNotFound)
	}
	return match, nil
}

// projectRef returns the --project flag value, falling back to the
// DOCSIGHT_PROJECT environment variable.
func projectRef(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(projectEnv)
}

// formatSize renders a byte count in binary units.
func formatSize(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
