// Package cli provides the command-line interface for ferrite.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/api"
	"github.com/ferrite-sec/ferrite-cli/internal/logging"
	"github.com/ferrite-sec/ferrite-cli/internal/version"
)

var (
	// Global flags
	cfgFile    string
	apiBaseURL string
	verbose    bool
	debug      bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ferrite",
		Short: "Ferrite - firmware analysis platform CLI",
		Long: `Ferrite ` + version.Version + ` - Built: ` + version.BuildTime + `
Command-line client for the Ferrite firmware analysis platform.

Submit firmware images for analysis, inspect results, download PDF
reports, and manage your credentials.

Authentication:
  ferrite login               password login (short-lived session)
  ferrite apikey create       long-lived API key for CI pipelines

Typical session:
  ferrite create --file fw.bin --type UEFI
  ferrite list
  ferrite overview <project-id>
  ferrite report <project-id>`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(-1) // Debug level (zerolog.DebugLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Ferrite API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	// Customize completion command description
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Enable tab-completion for ferrite commands",
		Long: `Generate shell completion scripts to enable tab-completion for ferrite.

QUICK START:

  bash:
    ferrite completion bash | sudo tee /etc/bash_completion.d/ferrite

  zsh:
    mkdir -p ~/.zsh/completions
    ferrite completion zsh > ~/.zsh/completions/_ferrite
    # Then add to ~/.zshrc: fpath=(~/.zsh/completions $fpath)

  fish:
    ferrite completion fish > ~/.config/fish/completions/ferrite.fish

Restart your terminal afterwards.`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI and returns the error for main to map onto the
// exit code contract.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	// Set up signal handling for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop to drain repeated signals (e.g. the user pressing Ctrl+C again);
	// when the channel is closed sig is nil and the loop exits.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	// Cobra already printed the error itself; add the way out for
	// credential problems.
	switch api.KindOf(err) {
	case api.KindSessionExpired:
		fmt.Fprintln(os.Stderr, "Your session has expired. Run 'ferrite login' to authenticate again.")
	case api.KindUnauthenticated:
		fmt.Fprintln(os.Stderr, "Run 'ferrite login', or store an API key with 'ferrite apikey create --use'.")
	}

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newOverviewCmd())
	rootCmd.AddCommand(newAnalysisCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newAPIKeyCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		// Fallback to background context if called before Execute()
		return context.Background()
	}
	return rootContext
}

// operationContext bounds a single API operation with a deadline, derived
// from the signal context so Ctrl+C still cancels mid-flight.
func operationContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(GetContext(), timeout)
}
