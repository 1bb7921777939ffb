package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index",
	Long: `Drops the vector index and queues every document for processing again.
Run it after changing embedding.model or index.dimensions; vectors from
different models cannot be compared.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

var reindexWait bool

func init() {
	reindexCmd.Flags().BoolVarP(&reindexWait, "wait", "w", true, "wait until every document is processed")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	b, err := needBackend()
	if err != nil {
		return err
	}
	if b.Reindex == nil {
		return errors.New("reindex not available")
	}

	queued, err := b.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to reindex: %w", err)
	}
	cmd.Printf("Queued %d document(s) for reindexing.\n", queued)

	if !reindexWait || queued == 0 || b.Wait == nil {
		drainOnExit = queued > 0
		return nil
	}
	if err := b.Wait(cmd.Context()); err != nil {
		return fmt.Errorf("waiting for processing: %w", err)
	}
	cmd.Println("Reindex complete.")
	return nil
}
