package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
	Long:    `Create, list, update, archive and delete projects.`,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [project]",
	Short: "Update a project",
	Long:  `Changes the flags given; everything else is left as is.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive [project]",
	Short: "Archive a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectArchive,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [project]",
	Short: "Delete a project with its documents and conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var (
	projectDescription string
	projectColor       string
	projectName        string
	projectStatus      string
	projectAll         bool
)

func init() {
	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "project description")
	projectCreateCmd.Flags().StringVar(&projectColor, "color", "", "hex color, e.g. #3B82F6")

	projectUpdateCmd.Flags().StringVar(&projectName, "name", "", "new name")
	projectUpdateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "new description")
	projectUpdateCmd.Flags().StringVar(&projectColor, "color", "", "new hex color")
	projectUpdateCmd.Flags().StringVar(&projectStatus, "status", "", "active or archived")

	projectListCmd.Flags().BoolVarP(&projectAll, "all", "a", false, "include archived projects")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	if projectService == nil {
		return errors.New("project service not configured")
	}

	project, err := projectService.Create(cmd.Context(), args[0], projectDescription, projectColor)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	cmd.Printf("Created project %s (%s)\n", project.Name, project.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	if projectService == nil {
		return errors.New("project service not configured")
	}

	projects, err := projectService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	shown := 0
	for i := range projects {
		p := &projects[i]
		if p.Status == domain.ProjectArchived && !projectAll {
			continue
		}
		if shown == 0 {
			cmd.Println("Projects:")
			cmd.Println()
		}
		shown++
		cmd.Printf("  %s  %s\n", p.ID, p.Name)
		cmd.Printf("    %d documents, %d key points", p.DocumentsCount, p.KeyPointsCount)
		if p.Status == domain.ProjectArchived {
			cmd.Print(", archived")
		}
		cmd.Println()
	}

	if shown == 0 {
		cmd.Println("No projects. Create one with: docsight project create <name>")
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	project, err := resolveProject(cmd, args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Project: %s\n\n", project.Name)
	cmd.Printf("  ID:          %s\n", project.ID)
	if project.Description != "" {
		cmd.Printf("  Description: %s\n", project.Description)
	}
	cmd.Printf("  Status:      %s\n", project.Status)
	cmd.Printf("  Color:       %s\n", project.Color)
	cmd.Printf("  Documents:   %d\n", project.DocumentsCount)
	cmd.Printf("  Key points:  %d\n", project.KeyPointsCount)
	cmd.Printf("  Created:     %s\n", project.CreatedAt.Format(timeLayout))
	cmd.Printf("  Last active: %s\n", project.LastActivityAt.Format(timeLayout))
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	project, err := resolveProject(cmd, args[0])
	if err != nil {
		return err
	}

	var update driving.ProjectUpdate
	flags := cmd.Flags()
	if flags.Changed("name") {
		update.Name = &projectName
	}
	if flags.Changed("description") {
		update.Description = &projectDescription
	}
	if flags.Changed("color") {
		update.Color = &projectColor
	}
	if flags.Changed("status") {
		status := domain.ProjectStatus(projectStatus)
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q: use active or archived", projectStatus)
		}
		update.Status = &status
	}
	if update == (driving.ProjectUpdate{}) {
		return errors.New("nothing to update: pass --name, --description, --color or --status")
	}

	updated, err := projectService.Update(cmd.Context(), project.ID, update)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	cmd.Printf("Updated project %s\n", updated.Name)
	return nil
}

func runProjectArchive(cmd *cobra.Command, args []string) error {
	project, err := resolveProject(cmd, args[0])
	if err != nil {
		return err
	}

	if err := projectService.Archive(cmd.Context(), project.ID); err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}

	cmd.Printf("Archived project %s\n", project.Name)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	project, err := resolveProject(cmd, args[0])
	if err != nil {
		return err
	}

	if err := projectService.Delete(cmd.Context(), project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	cmd.Printf("Deleted project %s and its %d documents\n", project.Name, project.DocumentsCount)
	return nil
}
