// Package config provides configuration management for the ferrite CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultAPIBaseURL is the hosted platform endpoint.
const DefaultAPIBaseURL = "https://platform.ferrite.dev"

// Config holds the effective CLI configuration.
//
// Config file location: <config dir>/config.ini
//
// INI format:
//
//	[api]
//	base_url = https://platform.ferrite.dev
//	timeout_seconds = 30
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy =
type Config struct {
	// API connection settings
	APIBaseURL     string `ini:"base_url"`
	TimeoutSeconds int    `ini:"timeout_seconds"`

	// Proxy settings
	ProxyMode     string `ini:"mode"` // no-proxy, system, basic, ntlm
	ProxyHost     string `ini:"host"`
	ProxyPort     int    `ini:"port"`
	ProxyUser     string `ini:"user"`
	ProxyPassword string `ini:"-"` // env or prompt only, never written to disk
	NoProxy       string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingBaseURL  = errors.New("api base_url is required")
	ErrInvalidBaseURL  = errors.New("api base_url must be an http(s) URL")
	ErrInvalidTimeout  = errors.New("timeout_seconds must be between 1 and 600")
	ErrInvalidProxy    = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
	ErrMissingProxyHost = errors.New("proxy host is required for basic and ntlm modes")
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		TimeoutSeconds: 30,
		ProxyMode:      "no-proxy",
		ProxyPort:      8080,
	}
}

// Load reads configuration from an INI file.
// A missing file yields defaults and no error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // defaults when the path cannot be determined
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	apiSection := iniFile.Section("api")
	cfg.APIBaseURL = apiSection.Key("base_url").MustString(cfg.APIBaseURL)
	cfg.TimeoutSeconds = apiSection.Key("timeout_seconds").MustInt(cfg.TimeoutSeconds)

	proxySection := iniFile.Section("proxy")
	cfg.ProxyMode = proxySection.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxySection.Key("host").String()
	cfg.ProxyPort = proxySection.Key("port").MustInt(cfg.ProxyPort)
	cfg.ProxyUser = proxySection.Key("user").String()
	cfg.NoProxy = proxySection.Key("no_proxy").String()

	return cfg, nil
}

// Save writes configuration to an INI file using the temp-file + rename
// protocol so a concurrent reader never sees a torn write. The proxy
// password is deliberately not persisted.
func (cfg *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	apiSection, err := iniFile.NewSection("api")
	if err != nil {
		return fmt.Errorf("failed to create api section: %w", err)
	}
	apiSection.Key("base_url").SetValue(cfg.APIBaseURL)
	apiSection.Key("timeout_seconds").SetValue(strconv.Itoa(cfg.TimeoutSeconds))

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.ProxyMode)
	proxySection.Key("host").SetValue(cfg.ProxyHost)
	proxySection.Key("port").SetValue(strconv.Itoa(cfg.ProxyPort))
	proxySection.Key("user").SetValue(cfg.ProxyUser)
	proxySection.Key("no_proxy").SetValue(cfg.NoProxy)

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// MergeWithFlags applies the resolution order: command-line flag,
// then environment, then whatever Load produced (file or default).
func (cfg *Config) MergeWithFlags(flagAPIURL string) {
	if flagAPIURL != "" {
		cfg.APIBaseURL = flagAPIURL
	} else if env := os.Getenv("FERRITE_API_URL"); env != "" {
		cfg.APIBaseURL = env
	}

	if env := os.Getenv("FERRITE_PROXY_MODE"); env != "" {
		cfg.ProxyMode = env
	}
	if env := os.Getenv("FERRITE_PROXY_HOST"); env != "" {
		cfg.ProxyHost = env
	}
	if env := os.Getenv("FERRITE_PROXY_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			cfg.ProxyPort = port
		}
	}
	if env := os.Getenv("FERRITE_PROXY_USER"); env != "" {
		cfg.ProxyUser = env
	}
	// The password never lives in the config file.
	if env := os.Getenv("FERRITE_PROXY_PASSWORD"); env != "" {
		cfg.ProxyPassword = env
	}
	if env := os.Getenv("FERRITE_NO_PROXY"); env != "" {
		cfg.NoProxy = env
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
}

// Validate checks the configuration before any network use.
func (cfg *Config) Validate() error {
	trimmed := strings.TrimSpace(cfg.APIBaseURL)
	if trimmed == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if cfg.TimeoutSeconds < 1 || cfg.TimeoutSeconds > 600 {
		return ErrInvalidTimeout
	}

	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxy
	}

	return nil
}

// Redacted returns a copy safe for display: secrets are masked.
func (cfg *Config) Redacted() Config {
	out := *cfg
	if out.ProxyPassword != "" {
		out.ProxyPassword = "********"
	}
	return out
}
