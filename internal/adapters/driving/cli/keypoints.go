package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

var keyPointsCmd = &cobra.Command{
	Use:     "keypoints",
	Aliases: []string{"kp"},
	Short:   "List the key points of a project",
	Long: `Lists dates, people, locations, tasks, decisions and referenced documents
extracted from a project's documents.

Examples:
  docsight keypoints --project "Acme Deal" --type task,decision
  docsight keypoints --project "Acme Deal" --query contract
  docsight keypoints --project "Acme Deal" --stats`,
	Args: cobra.NoArgs,
	RunE: runKeyPoints,
}

var (
	keyPointsProject  string
	keyPointsTypes    []string
	keyPointsQuery    string
	keyPointsDocument string
	keyPointsStats    bool
)

func init() {
	keyPointsCmd.Flags().StringVarP(&keyPointsProject, "project", "p", "", "project ID or name")
	keyPointsCmd.Flags().StringSliceVarP(&keyPointsTypes, "type", "t", nil,
		"only these types: date, person, location, task, decision, document")
	keyPointsCmd.Flags().StringVarP(&keyPointsQuery, "query", "q", "", "only key points containing this text")
	keyPointsCmd.Flags().StringVar(&keyPointsDocument, "document", "", "only key points of this document ID")
	keyPointsCmd.Flags().BoolVar(&keyPointsStats, "stats", false, "show counts per type")
	rootCmd.AddCommand(keyPointsCmd)
}

func runKeyPoints(cmd *cobra.Command, _ []string) error {
	if keyPointService == nil {
		return errors.New("key point service not configured")
	}
	project, err := resolveProject(cmd, projectRef(keyPointsProject))
	if err != nil {
		return err
	}

	if keyPointsStats {
		stats, err := keyPointService.Stats(cmd.Context(), project.ID)
		if err != nil {
			return fmt.Errorf("failed to count key points: %w", err)
		}
		printKeyPointStats(cmd, stats)
		return nil
	}

	types, err := parseKeyPointTypes(keyPointsTypes)
	if err != nil {
		return err
	}
	filter := domain.KeyPointFilter{Types: types, Query: keyPointsQuery, DocumentID: keyPointsDocument}

	keyPoints, err := keyPointService.List(cmd.Context(), project.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to list key points: %w", err)
	}

	if len(keyPoints) == 0 {
		cmd.Println("No key points found.")
		return nil
	}

	byType := make(map[domain.KeyPointType][]domain.KeyPoint)
	for i := range keyPoints {
		byType[keyPoints[i].Type] = append(byType[keyPoints[i].Type], keyPoints[i])
	}
	for _, t := range domain.KeyPointTypes {
		group := byType[t]
		if len(group) == 0 {
			continue
		}
		cmd.Printf("%s:\n", t.Label())
		for i := range group {
			cmd.Printf("  - %s  [%s, %.0f%%]\n", group[i].Content, group[i].Source, group[i].Confidence*100)
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d key points\n", len(keyPoints))
	return nil
}

func printKeyPointStats(cmd *cobra.Command, stats domain.KeyPointStats) {
	for _, t := range domain.KeyPointTypes {
		cmd.Printf("  %-10s %d\n", t.Label(), stats.ByType[t])
	}
	cmd.Printf("  %-10s %d\n", "Total", stats.Total)
}

// parseKeyPointTypes accepts names in any case, comma separated or repeated.
func parseKeyPointTypes(values []string) ([]domain.KeyPointType, error) {
	var types []domain.KeyPointType
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			t := domain.KeyPointType(part)
			if !t.IsValid() {
				return nil, fmt.Errorf("unknown key point type %q", part)
			}
			types = append(types, t)
		}
	}
	return types, nil
}
