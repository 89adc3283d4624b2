package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestLoadMissingFileReturnsDefaults verifies that a nonexistent config file
// yields the built-in defaults without error.
func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if err != nil {
		t.Fatalf("Load with missing file returned error: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q, want default %q", cfg.APIBaseURL, DefaultAPIBaseURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("ProxyMode = %q, want no-proxy", cfg.ProxyMode)
	}
}

// TestSaveLoadRoundTrip verifies Save writes an INI file that Load reads
// back field for field, and that the proxy password never reaches disk.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")

	in := New()
	in.APIBaseURL = "https://ferrite.internal.example"
	in.TimeoutSeconds = 45
	in.ProxyMode = "basic"
	in.ProxyHost = "proxy.corp.example"
	in.ProxyPort = 3128
	in.ProxyUser = "svc-firmware"
	in.ProxyPassword = "hunter2"
	in.NoProxy = "localhost,10.0.0.0/8"

	if err := in.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") {
		t.Error("Proxy password was written to the config file")
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.APIBaseURL != in.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", out.APIBaseURL, in.APIBaseURL)
	}
	if out.TimeoutSeconds != in.TimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want %d", out.TimeoutSeconds, in.TimeoutSeconds)
	}
	if out.ProxyMode != "basic" || out.ProxyHost != in.ProxyHost || out.ProxyPort != 3128 {
		t.Errorf("Proxy settings did not round-trip: %+v", out)
	}
	if out.ProxyPassword != "" {
		t.Errorf("ProxyPassword = %q after Load, want empty", out.ProxyPassword)
	}
}

// TestSaveSetsOwnerOnlyPermissions verifies the saved file is 0600 on Unix.
func TestSaveSetsOwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions not applicable on Windows")
	}

	path := filepath.Join(t.TempDir(), "config.ini")
	if err := New().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Config file permissions = %o, want 0600", perm)
	}
}

// TestMergeWithFlagsPriority verifies flag > environment > file ordering
// for the API base URL.
func TestMergeWithFlagsPriority(t *testing.T) {
	t.Setenv("FERRITE_API_URL", "https://env.example")

	cfg := New()
	cfg.APIBaseURL = "https://file.example"

	cfg.MergeWithFlags("https://flag.example")
	if cfg.APIBaseURL != "https://flag.example" {
		t.Errorf("Flag should win: got %q", cfg.APIBaseURL)
	}

	cfg = New()
	cfg.APIBaseURL = "https://file.example"
	cfg.MergeWithFlags("")
	if cfg.APIBaseURL != "https://env.example" {
		t.Errorf("Env should win over file: got %q", cfg.APIBaseURL)
	}

	t.Setenv("FERRITE_API_URL", "")
	cfg = New()
	cfg.APIBaseURL = "https://file.example"
	cfg.MergeWithFlags("")
	if cfg.APIBaseURL != "https://file.example" {
		t.Errorf("File value should survive empty flag and env: got %q", cfg.APIBaseURL)
	}
}

// TestMergeTrimsTrailingSlash verifies the base URL is normalized so path
// joining never produces double slashes.
func TestMergeTrimsTrailingSlash(t *testing.T) {
	cfg := New()
	cfg.MergeWithFlags("https://flag.example/")
	if cfg.APIBaseURL != "https://flag.example" {
		t.Errorf("Trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
}

// TestValidate covers the accept/reject matrix for URLs, timeouts, and
// proxy modes.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults valid", func(c *Config) {}, nil},
		{"empty url", func(c *Config) { c.APIBaseURL = " " }, ErrMissingBaseURL},
		{"bad scheme", func(c *Config) { c.APIBaseURL = "ftp://x.example" }, ErrInvalidBaseURL},
		{"no host", func(c *Config) { c.APIBaseURL = "https://" }, ErrInvalidBaseURL},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"huge timeout", func(c *Config) { c.TimeoutSeconds = 3600 }, ErrInvalidTimeout},
		{"unknown proxy mode", func(c *Config) { c.ProxyMode = "socks5" }, ErrInvalidProxy},
		{"ntlm needs host", func(c *Config) { c.ProxyMode = "ntlm" }, ErrMissingProxyHost},
		{"basic with host", func(c *Config) { c.ProxyMode = "basic"; c.ProxyHost = "p.example" }, nil},
		{"system mode", func(c *Config) { c.ProxyMode = "system" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRedacted verifies secrets are masked for display.
func TestRedacted(t *testing.T) {
	cfg := New()
	cfg.ProxyPassword = "hunter2"

	red := cfg.Redacted()
	if red.ProxyPassword != "********" {
		t.Errorf("Redacted password = %q", red.ProxyPassword)
	}
	if cfg.ProxyPassword != "hunter2" {
		t.Error("Redacted mutated the original config")
	}
}

// TestDefaultPathsHonorEnvOverrides verifies FERRITE_CONFIG and
// FERRITE_CREDENTIALS redirect the file locations.
func TestDefaultPathsHonorEnvOverrides(t *testing.T) {
	t.Setenv("FERRITE_CONFIG", "/tmp/alt-config.ini")
	p, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if p != "/tmp/alt-config.ini" {
		t.Errorf("DefaultConfigPath = %q", p)
	}

	t.Setenv("FERRITE_CREDENTIALS", "/tmp/alt-creds.json")
	p, err = DefaultCredentialsPath()
	if err != nil {
		t.Fatalf("DefaultCredentialsPath: %v", err)
	}
	if p != "/tmp/alt-creds.json" {
		t.Errorf("DefaultCredentialsPath = %q", p)
	}
}
