// Package api implements the HTTP client for the Ferrite platform:
// credential injection, session refresh, and the typed resource operations
// the CLI is built on.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response is read for its detail
// text.
const maxErrorBody = 64 << 10

// Kind classifies every failure the client can surface. The set is closed:
// the CLI switches on it for wording and exit codes, so adding a kind is a
// breaking change to that contract.
type Kind int

const (
	// KindBadRequest is a 400 or a client-side validation failure;
	// Message carries the detail text.
	KindBadRequest Kind = iota + 1

	// KindUnauthenticated means no stored credential, rejected login
	// credentials, or a rejected API key.
	KindUnauthenticated

	// KindSessionExpired means the session 401'd and the operation's
	// single refresh could not rescue it.
	KindSessionExpired

	// KindNotFound is a 404; Message names the missing resource.
	KindNotFound

	// KindConflict is a 409, or creating an API key when one already
	// exists.
	KindConflict

	// KindRateLimited is a 429; RetryAfter carries the server's wait
	// time when it sent one.
	KindRateLimited

	// KindServerError is any 5xx, or a malformed success response.
	KindServerError

	// KindUploadFailed is a fault while streaming a firmware body;
	// Offset is the byte count reached.
	KindUploadFailed

	// KindNetwork is a transport-level failure: connect, reset, timeout.
	KindNetwork

	// KindLocalStorage is a credential store or local file fault surfaced
	// through a client flow.
	KindLocalStorage
)

// String returns the stable name used in logs.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindSessionExpired:
		return "session_expired"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindUploadFailed:
		return "upload_failed"
	case KindNetwork:
		return "network"
	case KindLocalStorage:
		return "local_storage"
	default:
		return "unknown"
	}
}

// Error is the single error type this package returns. Callers dispatch on
// Kind; the remaining fields carry kind-specific detail.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int           // set when the server answered
	RetryAfter time.Duration // KindRateLimited only
	Offset     int64         // KindUploadFailed only
	Err        error         // wrapped cause, when there is one
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindRateLimited && e.RetryAfter > 0:
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	case e.Kind == KindUploadFailed:
		return fmt.Sprintf("%s after %d bytes", e.Message, e.Offset)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from any error returned by this package.
// Errors from elsewhere report zero.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// errorFromResponse maps a non-2xx response onto the taxonomy. It consumes
// and closes the body.
func errorFromResponse(resp *nethttp.Response) *Error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := errorDetail(body, resp.StatusCode)

	switch {
	case resp.StatusCode == nethttp.StatusBadRequest:
		return &Error{Kind: KindBadRequest, Message: detail, StatusCode: resp.StatusCode}
	case resp.StatusCode == nethttp.StatusUnauthorized || resp.StatusCode == nethttp.StatusForbidden:
		return &Error{Kind: KindUnauthenticated, Message: detail, StatusCode: resp.StatusCode}
	case resp.StatusCode == nethttp.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: detail, StatusCode: resp.StatusCode}
	case resp.StatusCode == nethttp.StatusConflict:
		return &Error{Kind: KindConflict, Message: detail, StatusCode: resp.StatusCode}
	case resp.StatusCode == nethttp.StatusTooManyRequests:
		return &Error{
			Kind:       KindRateLimited,
			Message:    detail,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindServerError, Message: detail, StatusCode: resp.StatusCode}
	default:
		// The platform does not use other statuses; treat strays as the
		// client's fault rather than inventing a kind for them.
		return &Error{Kind: KindBadRequest, Message: detail, StatusCode: resp.StatusCode}
	}
}

// errorDetail extracts a human-readable message from an error body. The
// platform answers {"detail": ...} on API routes but plain text on a few
// older ones.
func errorDetail(body []byte, status int) string {
	text := strings.TrimSpace(string(body))
	if text != "" {
		var payload struct {
			Detail  string `json:"detail"`
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Detail != "":
				return payload.Detail
			case payload.Error != "":
				return payload.Error
			case payload.Message != "":
				return payload.Message
			}
		}
		if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
			return text
		}
	}
	return strings.ToLower(nethttp.StatusText(status))
}

// parseRetryAfter handles both forms the header allows: delta-seconds and
// an HTTP-date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := nethttp.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// describeNotFound replaces the generic 404 message with the name of the
// resource the caller was after. Other errors pass through untouched.
func describeNotFound(err error, resource string) error {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindNotFound {
		apiErr.Message = resource + " not found"
	}
	return err
}
