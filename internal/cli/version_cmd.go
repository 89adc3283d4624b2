// Package cli provides the version command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/version"
)

// newVersionCmd creates the 'version' command.
func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version",
		Long: `Show the CLI version and build time.

With --check the platform is asked for the newest released version and
you are told whether an upgrade exists. Plain 'version' never touches
the network.

Examples:
  ferrite version
  ferrite version --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("ferrite %s (built %s)\n", version.Version, version.BuildTime)

			if !check {
				return nil
			}

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			// The updates endpoint is a quick reachability-style probe;
			// it gets the short timeout.
			ctx, cancel := operationContext(constants.APIConnectionTestTimeout)
			defer cancel()

			latest, err := apiClient.LatestVersion(ctx)
			if err != nil {
				return err
			}

			if version.NewerAvailable(version.Version, latest) {
				fmt.Printf("A newer release is available: %s\n", latest)
			} else {
				fmt.Println("You are on the latest release")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Ask the platform whether a newer release exists")

	return cmd
}
