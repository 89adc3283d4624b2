// Package cli provides authentication commands.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/credential"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var username string
	var passwordFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Ferrite platform",
		Long: `Log in with your platform username and password.

The password is prompted with echo disabled. On success a session token
pair is stored owner-only under your config directory and used by every
later command until it expires or you log out.

For CI pipelines and scripts, create an API key instead:
  ferrite apikey create --label ci --use

Examples:
  # Interactive login
  ferrite login

  # Username given, password prompted
  ferrite login --username ada@example.com

  # Password from a file (first line), for scripted setups
  ferrite login --username ada@example.com --password-file ~/.ferrite-pass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			manager, err := getSessionManager()
			if err != nil {
				return err
			}

			// A usable stored credential means there is nothing to do:
			// report it instead of silently replacing it.
			if cred := manager.Current(); cred != nil {
				switch {
				case cred.Type == credential.KindAPIKey:
					fmt.Printf("Already authenticated with API key %s.\n", cred.APIKey.KeyID)
					fmt.Println("Run 'ferrite logout' first to switch to a password session.")
					return nil
				case cred.Type == credential.KindSessionToken && !cred.Session.ExpiresWithin(0):
					fmt.Printf("Already logged in (session valid until %s).\n",
						cred.Session.ExpiresAt.Local().Format(time.RFC1123))
					return nil
				}
				// An expired session falls through to a fresh login.
			}

			if username == "" {
				username, err = promptLine(os.Stdin, "Username: ")
				if err != nil {
					return fmt.Errorf("reading username: %w", err)
				}
			}
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("username is required")
			}

			password, err := readPassword(passwordFile)
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("password is required")
			}

			ctx, cancel := operationContext(constants.APIContextTimeout)
			defer cancel()

			logger.Debug().Str("username", username).Msg("authenticating")
			if err := manager.Login(ctx, username, password); err != nil {
				return err
			}

			cred := manager.Current()
			if cred != nil && cred.Session != nil {
				fmt.Printf("✓ Logged in as %s (session valid until %s)\n",
					username, cred.Session.ExpiresAt.Local().Format(time.RFC1123))
			} else {
				fmt.Printf("✓ Logged in as %s\n", username)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Platform username (prompted if omitted)")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the password from the first line of this file instead of prompting")

	return cmd
}

// readPassword takes the password from the given file when set, otherwise
// prompts on the terminal with echo disabled.
func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		// First line only; trailing newlines are echo/printf artifacts.
		line, _, _ := strings.Cut(string(data), "\n")
		return strings.TrimRight(line, "\r"), nil
	}
	return promptPassword("Password: ")
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored credential",
		Long: `Remove the locally stored session or API key.

Logging out when nothing is stored is a no-op success, so this is always
safe to run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := getSessionManager()
			if err != nil {
				return err
			}

			hadCredential := manager.Current() != nil
			if err := manager.Logout(); err != nil {
				return err
			}

			if hadCredential {
				fmt.Println("✓ Logged out")
			} else {
				fmt.Println("Not logged in; nothing to do")
			}
			return nil
		},
	}
}
