package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeNetwork indicates transport-level issues (timeouts, connection
	// refused, resets) where the request may never have reached the server
	ErrorTypeNetwork
	// ErrorTypeFatal indicates errors that must not be retried: the server
	// answered (any status), the context ended, or the failure is local
	ErrorTypeFatal
)

// Config holds retry parameters for ExecuteWithRetry
type Config struct {
	// MaxAttempts is the total number of attempts including the first (default: 3)
	MaxAttempts int
	// InitialDelay is the base delay for exponential backoff (default: 500ms)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 8s)
	MaxDelay time.Duration
	// OnRetry is an optional callback invoked before each retry attempt
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns a Config with the standard bounded policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  constants.MaxAttempts,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
	}
}

// ClassifyError determines whether an error is a transport failure worth
// retrying. Only errors from the connection itself qualify; a response with
// an error status means the server made a decision and retrying won't
// change it. Context cancellation is fatal: the user gave up, not the
// network.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// http.Client wraps every transport fault in *url.Error; anything
		// that got this far without a response is a network problem.
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "no such host") {
		return ErrorTypeNetwork
	}

	return ErrorTypeFatal
}

// CalculateBackoff returns exponential backoff duration with full jitter
// Full jitter prevents thundering herd problem when many clients retry simultaneously
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}

	// Exponential: 2^attempt * initialDelay
	base := time.Duration(1<<uint(attempt)) * initialDelay

	// Cap at maxDelay
	if base > maxDelay {
		base = maxDelay
	}

	// Full jitter: random value between 0 and base
	// This spreads out retry attempts to avoid synchronized retries
	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs an operation with the bounded transport-retry policy.
//
// Retry strategy:
//   - Network errors: exponential backoff with full jitter, up to MaxAttempts
//   - Fatal errors: return immediately without retry
//   - Context cancellation: return immediately, including mid-backoff
//
// Callers gate this on method idempotence; a non-idempotent request must
// not pass through here.
func ExecuteWithRetry(ctx context.Context, config Config, operation func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = constants.MaxAttempts
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		switch ClassifyError(err) {
		case ErrorTypeFatal:
			return err

		case ErrorTypeNetwork:
			if attempt >= config.MaxAttempts-1 {
				break
			}
			if config.OnRetry != nil {
				config.OnRetry(attempt+1, err)
			}
			backoff := CalculateBackoff(attempt+1, config.InitialDelay, config.MaxDelay)
			if err := sleepContext(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// sleepContext waits for d or until the context ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
