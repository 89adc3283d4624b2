// Package cli provides the firmware submission command.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/api"
	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/progress"
)

// newCreateCmd creates the 'create' command.
func newCreateCmd() *cobra.Command {
	var firmwarePath string
	var firmwareType string
	var firmwareSubtype string
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a firmware image for analysis",
		Long: `Upload a firmware image and create a new analysis project.

The image is streamed, so large firmware files do not need to fit in
memory. Analysis starts server-side as soon as the upload completes; use
'ferrite overview' to watch its progress.

Uploads are never retried automatically: if the connection drops the
command fails and you decide whether to run it again. This keeps a flaky
network from creating duplicate projects.

Examples:
  # UEFI image, project named after the file
  ferrite create --file ./firmware.bin --type UEFI

  # Everything spelled out
  ferrite create --file ./router.img --type Linux --subtype squashfs \
    --name "router-fw-v2" --description "vendor drop 2026-08"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			// Default the project name to the image filename.
			if name == "" && firmwarePath != "" {
				name = filepath.Base(firmwarePath)
			}

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			spec := api.UploadSpec{
				FirmwarePath: firmwarePath,
				Name:         name,
				FirmwareType: firmwareType,
				Subtype:      firmwareSubtype,
				Description:  description,
				Progress:     progress.NewReporter(debug),
			}

			logger.Info().
				Str("file", firmwarePath).
				Str("type", firmwareType).
				Str("name", name).
				Msg("Submitting firmware")

			// Large images over slow links need more headroom than the
			// standard operation timeout.
			ctx, cancel := operationContext(constants.UploadTimeout)
			defer cancel()

			id, err := apiClient.CreateProject(ctx, spec)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Project created\n")
			fmt.Printf("  Project ID: %s\n", id)
			fmt.Printf("\nTrack analysis progress with: ferrite overview %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&firmwarePath, "file", "f", "", "Firmware image to upload (required)")
	cmd.Flags().StringVarP(&firmwareType, "type", "t", "", "Firmware type, e.g. UEFI, Linux, RTOS (required)")
	cmd.Flags().StringVar(&firmwareSubtype, "subtype", "generic", "Firmware subtype")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: the image filename)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
