// Package cli provides project commands.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/validation"
)

// newListCmd creates the 'list' command.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		Long: `List all firmware analysis projects visible to your account.

Example:
  ferrite list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			projects, err := apiClient.ListProjects(ctx)
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("No projects found")
				return nil
			}

			fmt.Printf("Found %d project(s):\n\n", len(projects))
			for i, project := range projects {
				fmt.Printf("Project #%d:\n", i+1)
				fmt.Printf("  ID: %s\n", project.ID)
				fmt.Printf("  Name: %s\n", project.Name)
				fmt.Printf("  Type: %s\n", project.FirmwareType)
				fmt.Printf("  Status: %s\n", project.Status)
				fmt.Printf("  Created: %s\n", project.CreatedAt.Local().Format(time.RFC1123))
				fmt.Println()
			}
			return nil
		},
	}
}

// newOverviewCmd creates the 'overview' command.
func newOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview <project-id>",
		Short: "Show a project's analysis overview",
		Long: `Fetch the overview document for a project.

The overview aggregates the results of every analyzer that ran and its
shape varies with the firmware type, so it is printed as formatted JSON
rather than interpreted.

Example:
  ferrite overview 1b0e7f3a-4a3c-44c8-9d7e-3f3a6f3bb1c2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := validation.ValidateProjectID(args[0])
			if err != nil {
				return err
			}

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			overview, err := apiClient.ProjectOverview(ctx, id)
			if err != nil {
				return err
			}

			return printJSON(overview)
		},
	}
}

// newAnalysisCmd creates the 'analysis' command.
func newAnalysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analysis <project-id> <analyzer>",
		Short: "Show one analyzer's result for a project",
		Long: `Fetch a single analyzer's result for a project.

Analyzer names are defined by the platform and depend on the firmware
type (for example PeimDxe or UefiSecurityScanner for UEFI images).

Example:
  ferrite analysis 1b0e7f3a-4a3c-44c8-9d7e-3f3a6f3bb1c2 PeimDxe`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := validation.ValidateProjectID(args[0])
			if err != nil {
				return err
			}
			analyzer := args[1]

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			analysis, err := apiClient.ProjectAnalysis(ctx, id, analyzer)
			if err != nil {
				return err
			}

			fmt.Printf("Analysis:\n")
			fmt.Printf("  ID: %s\n", analysis.ID)
			fmt.Printf("  Project: %s\n", analysis.ProjectID)
			fmt.Printf("  Analyzer: %s\n", analysis.AnalyzerName)
			fmt.Printf("  Status: %s\n", analysis.Status)
			if len(analysis.Result) > 0 {
				fmt.Printf("  Result:\n")
				return printJSON(analysis.Result)
			}
			return nil
		},
	}
}

// newDeleteCmd creates the 'delete' command.
func newDeleteCmd() *cobra.Command {
	var confirmFlag bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Long: `Delete a project and all its analysis results.

WARNING: This operation cannot be undone!

Example:
  ferrite delete 1b0e7f3a-4a3c-44c8-9d7e-3f3a6f3bb1c2 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			id, err := validation.ValidateProjectID(args[0])
			if err != nil {
				return err
			}

			// Confirmation prompt
			if !confirmFlag {
				fmt.Printf("You are about to delete project %s. This cannot be undone.\n", id)
				ok, err := confirm(os.Stdin, "Are you sure?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Deletion cancelled")
					return nil
				}
			}

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			logger.Info().Str("project_id", id.String()).Msg("Deleting project")
			if err := apiClient.DeleteProject(ctx, id); err != nil {
				return err
			}

			fmt.Printf("✓ Deleted project: %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmFlag, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// printJSON writes a JSON document to stdout, indented.
func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Already validated server-side JSON; print as-is if indenting
		// somehow fails.
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
