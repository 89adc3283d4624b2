// Package cli provides API client helper functions.
package cli

import (
	"fmt"

	"github.com/ferrite-sec/ferrite-cli/internal/api"
	"github.com/ferrite-sec/ferrite-cli/internal/config"
	"github.com/ferrite-sec/ferrite-cli/internal/credential"
	inthttp "github.com/ferrite-sec/ferrite-cli/internal/http"
	"github.com/ferrite-sec/ferrite-cli/internal/session"
)

// loadConfig merges the configuration sources in priority order:
// --api-url flag, environment, config file, built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.MergeWithFlags(apiBaseURL)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openCredentialStore returns the store over the default credential file.
func openCredentialStore() (*credential.Store, error) {
	path, err := config.DefaultCredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate credential store: %w", err)
	}
	return credential.NewStore(path, GetLogger()), nil
}

// newClientAndStore builds the API client and its backing credential
// store. An authenticating proxy without a password from the environment
// means asking for it once per invocation; the password is held in
// memory only and never reaches the config file.
func newClientAndStore() (*api.Client, *credential.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if inthttp.NeedsProxyPassword(cfg) {
		password, err := promptPassword(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, nil, fmt.Errorf("proxy password required: %w", err)
		}
		cfg.ProxyPassword = password
	}

	store, err := openCredentialStore()
	if err != nil {
		return nil, nil, err
	}

	client, err := api.NewClient(cfg, store, GetLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, store, nil
}

// getAPIClient is the standard way CLI commands reach the platform.
func getAPIClient() (*api.Client, error) {
	client, _, err := newClientAndStore()
	return client, err
}

// getSessionManager wires the session manager for commands that change
// the credential lifecycle (login, logout, apikey).
func getSessionManager() (*session.Manager, error) {
	client, store, err := newClientAndStore()
	if err != nil {
		return nil, err
	}
	return session.NewManager(client, store, GetLogger()), nil
}
