// Package cli provides the report download command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/diskspace"
	"github.com/ferrite-sec/ferrite-cli/internal/progress"
	"github.com/ferrite-sec/ferrite-cli/internal/validation"
)

// newReportCmd creates the 'report' command.
func newReportCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "report <project-id>",
		Short: "Download a project's PDF report",
		Long: `Download the analysis report for a project as a PDF.

The report is written to <project-id>.pdf in the output directory. An
existing file is never overwritten; move or remove it first.

Examples:
  ferrite report 1b0e7f3a-4a3c-44c8-9d7e-3f3a6f3bb1c2
  ferrite report 1b0e7f3a-4a3c-44c8-9d7e-3f3a6f3bb1c2 --output ~/reports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			id, err := validation.ValidateProjectID(args[0])
			if err != nil {
				return err
			}

			target, err := reportFilePath(outputDir, id)
			if err != nil {
				return err
			}

			// Probe free space before any network I/O; reports are small,
			// this catches a full disk, not sizing.
			if err := diskspace.CheckAvailableSpace(target, constants.ReportDiskSpaceFloor, 1.0); err != nil {
				return err
			}

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			// O_EXCL backs up the collision check against a concurrent
			// writer between the stat and the open.
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
			if err != nil {
				if os.IsExist(err) {
					return fmt.Errorf("report file already exists: %s", target)
				}
				return fmt.Errorf("cannot create report file: %w", err)
			}

			logger.Info().Str("project_id", id.String()).Str("path", target).Msg("Downloading report")

			ctx, cancel := operationContext(constants.DownloadTimeout)
			defer cancel()

			n, err := apiClient.DownloadReport(ctx, id, out, progress.NewReporter(debug))
			closeErr := out.Close()
			if err != nil {
				// A partial report is worse than none: the next run would
				// refuse to overwrite it.
				os.Remove(target)
				return err
			}
			if closeErr != nil {
				os.Remove(target)
				return fmt.Errorf("writing report to disk: %w", closeErr)
			}

			fmt.Printf("✓ Report saved\n")
			fmt.Printf("  File: %s\n", target)
			fmt.Printf("  Size: %d bytes\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the report into")

	return cmd
}

// reportFilePath resolves the report target path and rejects collisions
// up front, before any bytes move.
func reportFilePath(outputDir string, id uuid.UUID) (string, error) {
	info, err := os.Stat(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("output directory does not exist: %s", outputDir)
		}
		return "", fmt.Errorf("cannot access output directory %s: %w", outputDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output path is not a directory: %s", outputDir)
	}

	target := filepath.Join(outputDir, id.String()+".pdf")
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("report file already exists: %s", target)
	}
	return target, nil
}
