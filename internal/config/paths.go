// Package config provides configuration management for the ferrite CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DirName is the per-user configuration directory name.
const DirName = "ferrite"

// Dir returns the ferrite configuration directory.
//
// Locations:
//   - Windows: %APPDATA%\ferrite
//   - Unix: $XDG_CONFIG_HOME/ferrite, falling back to ~/.config/ferrite
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine config directory: %w", err)
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, DirName), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, DirName), nil
}

// EnsureDir creates the config directory owner-only if it doesn't exist.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultConfigPath returns the default config file location.
// FERRITE_CONFIG overrides it.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv("FERRITE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.ini"), nil
}

// DefaultCredentialsPath returns the credential store file location.
// FERRITE_CREDENTIALS overrides it, which keeps tests and scripted
// environments away from the real store.
func DefaultCredentialsPath() (string, error) {
	if p := os.Getenv("FERRITE_CREDENTIALS"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}
