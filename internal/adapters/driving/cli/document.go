package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "doc"},
	Short:   "Manage project documents",
	Long:    `Upload, list, view, delete or reprocess the documents of a project.`,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents to a project",
	Long: `Uploads files to a project. Each file is normalised, its key points are
extracted and its text is indexed for chat and search.

Supported formats: .eml .msg .pdf .docx .doc .txt .md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentUpload,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents of a project",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print the normalised text of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document with its key points and index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Process a document again from its stored original",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReprocess,
}

var (
	documentProject string
	documentWait    bool
)

func init() {
	documentUploadCmd.Flags().StringVarP(&documentProject, "project", "p", "", "project ID or name")
	documentUploadCmd.Flags().BoolVarP(&documentWait, "wait", "w", false, "wait until processing finishes")
	documentListCmd.Flags().StringVarP(&documentProject, "project", "p", "", "project ID or name")
	documentReprocessCmd.Flags().BoolVarP(&documentWait, "wait", "w", false, "wait until processing finishes")

	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	project, err := resolveProject(cmd, projectRef(documentProject))
	if err != nil {
		return err
	}

	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		doc, err := documentService.Upload(cmd.Context(), project.ID, filepath.Base(path), content)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("Uploaded %s (%s)\n", doc.Name, doc.ID)

		if documentWait {
			if err := waitAndReport(cmd, doc.ID); err != nil {
				return err
			}
		}
	}

	if !documentWait {
		drainOnExit = true
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to upload", failed, len(args))
	}
	return nil
}

func waitAndReport(cmd *cobra.Command, id string) error {
	doc, err := documentService.Wait(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed waiting for document: %w", err)
	}
	if doc.Status == domain.StatusError {
		cmd.Printf("  Failed: %s\n", doc.Error)
		return nil
	}
	cmd.Printf("  %s\n", doc.Status)
	if doc.Summary != "" {
		cmd.Printf("  Summary: %s\n", doc.Summary)
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	project, err := resolveProject(cmd, projectRef(documentProject))
	if err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context(), project.ID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in project: %s\n", project.Name)
		return nil
	}

	cmd.Printf("Documents in %s:\n\n", project.Name)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name:   %s (%s, %s)\n", docs[i].Name, docs[i].SourceType, formatSize(docs[i].Size))
		cmd.Printf("    Status: %s\n", statusLine(&docs[i]))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func statusLine(doc *domain.Document) string {
	if doc.Status == domain.StatusProcessing {
		if state, ok := documentService.State(doc.ID); ok {
			return fmt.Sprintf("%s (%s)", doc.Status, state.Stage)
		}
	}
	if doc.Status == domain.StatusError && doc.Error != "" {
		return fmt.Sprintf("%s: %s", doc.Status, doc.Error)
	}
	return string(doc.Status)
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.Name)
	cmd.Printf("  Project:  %s\n", doc.ProjectID)
	cmd.Printf("  Type:     %s\n", doc.SourceType)
	cmd.Printf("  Size:     %s\n", formatSize(doc.Size))
	cmd.Printf("  Status:   %s\n", statusLine(doc))
	cmd.Printf("  Uploaded: %s\n", doc.UploadedAt.Format(timeLayout))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format(timeLayout))
	if doc.Summary != "" {
		cmd.Printf("\n  %s\n", doc.Summary)
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.Content(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Reprocess(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}
	cmd.Printf("Reprocessing document %s\n", args[0])

	if documentWait {
		return waitAndReport(cmd, args[0])
	}
	drainOnExit = true
	return nil
}
