// Package cli provides API key management commands.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
)

// newAPIKeyCmd creates the 'apikey' command group.
func newAPIKeyCmd() *cobra.Command {
	apikeyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys (create, list, delete)",
		Long: `Manage long-lived API keys.

API keys authenticate non-interactive use (CI pipelines, scripts) where
a password login is impractical. A key's secret is shown exactly once,
at creation; the platform cannot reveal it again.`,
	}

	apikeyCmd.AddCommand(newAPIKeyCreateCmd())
	apikeyCmd.AddCommand(newAPIKeyListCmd())
	apikeyCmd.AddCommand(newAPIKeyDeleteCmd())

	return apikeyCmd
}

// newAPIKeyCreateCmd creates the 'apikey create' command.
func newAPIKeyCreateCmd() *cobra.Command {
	var label string
	var use bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long: `Create a new API key under your account.

The secret is printed ONCE and never again - store it somewhere safe
immediately. With --use the new key replaces your stored credential, so
later commands authenticate with it.

Examples:
  ferrite apikey create --label ci
  ferrite apikey create --label laptop --use`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := getSessionManager()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			record, err := manager.CreateAPIKey(ctx, label, use)
			if err != nil {
				return err
			}

			fmt.Printf("✓ API key created\n")
			fmt.Printf("  Key ID: %s\n", record.KeyID)
			fmt.Printf("  Label: %s\n", record.Label)
			fmt.Printf("  Secret: %s\n", record.Secret)
			fmt.Println()
			fmt.Println("Store the secret now - it cannot be retrieved again.")
			if use {
				fmt.Println("The new key is now your active credential.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label identifying the key, e.g. 'ci' (required)")
	cmd.Flags().BoolVar(&use, "use", false, "Adopt the new key as the active credential")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

// newAPIKeyListCmd creates the 'apikey list' command.
func newAPIKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your API keys",
		Long: `List the API keys on your account.

Secrets are never part of the listing; only creation shows them.

Example:
  ferrite apikey list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := getSessionManager()
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			records, err := manager.ListAPIKeys(ctx)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No API keys found")
				return nil
			}

			fmt.Printf("Found %d API key(s):\n\n", len(records))
			for i, record := range records {
				fmt.Printf("Key #%d:\n", i+1)
				fmt.Printf("  Key ID: %s\n", record.KeyID)
				fmt.Printf("  Label: %s\n", record.Label)
				fmt.Printf("  Created: %s\n", record.CreatedAt.Local().Format(time.RFC1123))
				fmt.Println()
			}
			return nil
		},
	}
}

// newAPIKeyDeleteCmd creates the 'apikey delete' command.
func newAPIKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete an API key",
		Long: `Revoke an API key.

Deleting the key you are currently authenticated with also removes it
from the local store, leaving you logged out.

Example:
  ferrite apikey delete 7f2c9a31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID := args[0]

			manager, err := getSessionManager()
			if err != nil {
				return err
			}

			wasActive := false
			if cred := manager.Current(); cred != nil && cred.APIKey != nil && cred.APIKey.KeyID == keyID {
				wasActive = true
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			if err := manager.DeleteAPIKey(ctx, keyID); err != nil {
				return err
			}

			fmt.Printf("✓ Deleted API key: %s\n", keyID)
			if wasActive {
				fmt.Println("That was your active credential; run 'ferrite login' or switch to another key.")
			}
			return nil
		},
	}
}
