package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a project in sync with a directory",
	Long: `Watches a directory and keeps a project's documents in sync with it.
New and changed files are uploaded after a short debounce, a changed file
replaces the document of the same name, and removed files are deleted.
Hidden files and unsupported formats are skipped.

By default the directory is synced once on start. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchProject  string
	watchDebounce time.Duration
	watchNoSync   bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project ID or name")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "delay before applying changes")
	watchCmd.Flags().BoolVar(&watchNoSync, "no-sync", false, "skip the initial sync of existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	project, err := resolveProject(cmd, projectRef(watchProject))
	if err != nil {
		return err
	}

	if watchDebounce <= 0 {
		return errors.New("--debounce must be positive")
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	w := watch.New(dir, project.ID, documentService,
		watch.WithDebounce(watchDebounce),
		watch.WithInitialSync(!watchNoSync),
		watch.WithNotify(func(c watch.Change) { printChange(cmd, c) }),
	)

	cmd.PrintErrf("Watching %s for project %s (Ctrl+C to stop)\n", dir, project.Name)
	return w.Run(cmd.Context())
}

func printChange(cmd *cobra.Command, c watch.Change) {
	name := filepath.Base(c.Path)
	switch {
	case c.Err != nil:
		cmd.Printf("! %s: %v\n", name, c.Err)
	case c.Type == watch.ChangeUpserted:
		cmd.Printf("+ %s (%s)\n", name, c.DocumentID)
	case c.Type == watch.ChangeDeleted:
		cmd.Printf("- %s\n", name)
	case c.Type == watch.ChangeSkipped:
		cmd.Printf("~ %s skipped: unsupported format\n", name)
	}
}
