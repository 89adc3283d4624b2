// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferrite-sec/ferrite-cli/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ferrite configuration",
		Long: `Configuration management commands.

Commands:
  init  - Write a default configuration file
  show  - Display the effective configuration
  path  - Show the configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file populated with defaults.

The file lands at ~/.config/ferrite/config.ini (or %APPDATA%\ferrite on
Windows) and documents every setting; edit it afterwards. Use --force to
overwrite an existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			// Check if config already exists
			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg := config.New()
			if err := cfg.Save(configPath); err != nil {
				return err
			}

			fmt.Printf("✓ Configuration written to: %s\n", configPath)
			fmt.Println("Edit the file to set a proxy or a different platform URL.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after merging flags, environment
variables, the config file, and defaults. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			shown := cfg.Redacted()

			fmt.Println("Effective configuration:")
			fmt.Printf("  API base URL: %s\n", shown.APIBaseURL)
			fmt.Printf("  Timeout: %ds\n", shown.TimeoutSeconds)
			fmt.Printf("  Proxy mode: %s\n", shown.ProxyMode)
			if shown.ProxyMode == "basic" || shown.ProxyMode == "ntlm" {
				fmt.Printf("  Proxy host: %s\n", shown.ProxyHost)
				fmt.Printf("  Proxy port: %d\n", shown.ProxyPort)
				if shown.ProxyUser != "" {
					fmt.Printf("  Proxy user: %s\n", shown.ProxyUser)
				}
				if shown.ProxyPassword != "" {
					fmt.Printf("  Proxy password: %s\n", shown.ProxyPassword)
				}
			}
			if shown.NoProxy != "" {
				fmt.Printf("  No-proxy list: %s\n", shown.NoProxy)
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			fmt.Println(configPath)

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("(file does not exist yet; run 'ferrite config init')")
			}
			return nil
		},
	}
}
