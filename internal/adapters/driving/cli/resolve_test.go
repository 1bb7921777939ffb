package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestResolveProject(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	tests := []struct {
		name   string
		ref    string
		wantID string
		errMsg string
	}{
		{"by id", "p-1", "p-1", ""},
		{"by name ignoring case", "acme deal", "p-1", ""},
		{"trims spaces", "  Old Lease ", "p-2", ""},
		{"empty", "", "", "project is required"},
		{"unknown", "Nope", "", "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := resolveProject(testCmd(), tt.ref)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, project.ID)
		})
	}
}

func TestResolveProject_UnknownIsNotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := resolveProject(testCmd(), "Nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveProject_AmbiguousName(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.projects.projects = append(mocks.projects.projects,
		domain.ProjectSummary{Project: domain.Project{ID: "p-3", Name: "ACME DEAL"}})

	_, err := resolveProject(testCmd(), "Acme Deal")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "several projects are named")
}

func TestResolveProject_NoService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	projectService = nil

	_, err := resolveProject(testCmd(), "p-1")

	assert.EqualError(t, err, "project service not configured")
}

func TestProjectRef(t *testing.T) {
	t.Setenv(projectEnv, "Acme Deal")

	assert.Equal(t, "p-9", projectRef("p-9"))
	assert.Equal(t, "Acme Deal", projectRef(""))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.in))
	}
}
