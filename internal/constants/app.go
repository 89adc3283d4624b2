package constants

import (
	"time"
)

// Retry configuration
const (
	// MaxAttempts - total attempts for idempotent requests (1 initial + 2 retries)
	MaxAttempts = 3

	// RetryInitialDelay - initial delay before first retry (500ms)
	RetryInitialDelay = 500 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (8s)
	// Exponential backoff with jitter caps at this value
	RetryMaxDelay = 8 * time.Second
)

// Token refresh
const (
	// TokenRefreshWindow - refresh a session token when it expires within this window.
	// Keeps a request from racing expiry mid-flight.
	TokenRefreshWindow = 30 * time.Second
)

// API timeouts
const (
	// APIContextTimeout - default timeout for API operations (30 seconds)
	APIContextTimeout = 30 * time.Second

	// APIConnectionTestTimeout - timeout for testing API connectivity (10 seconds)
	APIConnectionTestTimeout = 10 * time.Second

	// UploadTimeout - overall timeout for a firmware upload (30 minutes)
	// Large images over slow links need headroom; context cancellation still
	// applies underneath.
	UploadTimeout = 30 * time.Minute

	// DownloadTimeout - overall timeout for a report download (5 minutes)
	DownloadTimeout = 5 * time.Minute
)

// HTTP client timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second
)

// Report downloads
const (
	// ReportDiskSpaceFloor - free space required before writing a report (64 MB)
	// Reports are small; this guards against writing onto a full disk, not sizing.
	ReportDiskSpaceFloor = 64 * 1024 * 1024
)
