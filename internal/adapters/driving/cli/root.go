// Package cli provides the docsight command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Annotation values for annotationNeeds.
const (
	annotationNeeds = "docsight.needs"
	needsNothing    = "nothing"
	needsConfig     = "config"
)

// Backend is the set of services commands run against.
type Backend struct {
	Projects  driving.ProjectService
	Documents driving.DocumentService
	KeyPoints driving.KeyPointService
	Chat      driving.ChatService
	Search    driving.SearchService

	// Handler serves the HTTP API.
	Handler http.Handler

	// Reindex rebuilds the vector index and returns the documents queued.
	Reindex func(ctx context.Context) (int, error)

	// CheckProviders pings each AI provider by role.
	CheckProviders func(ctx context.Context) map[string]error

	// Wait blocks until queued documents are processed.
	Wait func(ctx context.Context) error

	// Close releases the backend.
	Close func() error

	// Warnings are shown once when the backend is loaded.
	Warnings []string
}

// Environment opens configuration and builds the backend on demand, so
// that commands which only touch configuration still work when storage
// or providers are broken.
type Environment struct {
	Config  func(ephemeral bool) (driven.ConfigStore, error)
	Backend func(ctx context.Context, cfg driven.ConfigStore, ephemeral bool) (*Backend, error)
}

var (
	verbose   bool
	ephemeral bool

	environment *Environment
	backend     *Backend

	// drainOnExit makes Execute wait for queued documents before closing.
	drainOnExit bool

	configStore     driven.ConfigStore
	projectService  driving.ProjectService
	documentService driving.DocumentService
	keyPointService driving.KeyPointService
	chatService     driving.ChatService
	searchService   driving.SearchService
)

var rootCmd = &cobra.Command{
	Use:   "docsight",
	Short: "Ask questions about your documents",
	Long: `docsight groups documents into projects, extracts key points from them
and answers questions grounded in their content, with citations.

Documents can be emails (.eml, .msg), PDFs, Word files (.docx, .doc) and
plain text (.txt, .md).`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep configuration and data in memory only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetEnvironment registers how configuration and services are built.
func SetEnvironment(env *Environment) {
	environment = env
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	err := rootCmd.ExecuteContext(ctx)
	if drainOnExit && backend != nil && backend.Wait != nil && err == nil {
		err = backend.Wait(ctx)
	}
	if closeErr := closeBackend(); err == nil {
		err = closeErr
	}
	return err
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	needs := cmd.Annotations[annotationNeeds]
	if needs == needsNothing || environment == nil {
		return nil
	}

	if configStore == nil && environment.Config != nil {
		cfg, err := environment.Config(ephemeral)
		if err != nil {
			return fmt.Errorf("opening configuration: %w", err)
		}
		configStore = cfg
	}
	if needs == needsConfig || backend != nil || environment.Backend == nil {
		return nil
	}

	b, err := environment.Backend(cmd.Context(), configStore, ephemeral)
	if err != nil {
		return err
	}
	useBackend(b)
	for _, w := range b.Warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
	return nil
}

func useBackend(b *Backend) {
	backend = b
	projectService = b.Projects
	documentService = b.Documents
	keyPointService = b.KeyPoints
	chatService = b.Chat
	searchService = b.Search
}

func closeBackend() error {
	if backend == nil || backend.Close == nil {
		return nil
	}
	err := backend.Close()
	backend = nil
	return err
}

var errBackendNotConfigured = errors.New("backend not configured")

func needBackend() (*Backend, error) {
	if backend == nil {
		return nil, errBackendNotConfigured
	}
	return backend, nil
}
