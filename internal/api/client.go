package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/ferrite-sec/ferrite-cli/internal/config"
	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/credential"
	"github.com/ferrite-sec/ferrite-cli/internal/http"
	"github.com/ferrite-sec/ferrite-cli/internal/logging"
	"github.com/ferrite-sec/ferrite-cli/internal/version"
)

// Client talks to the Ferrite platform API. It injects the stored
// credential, refreshes expiring sessions, and maps every failure onto the
// Kind taxonomy so nothing above it has to look at HTTP statuses.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	store      *credential.Store
	log        *logging.Logger
	retry      http.Config
}

// NewClient builds a client from the merged configuration and the
// credential store. The store may hold no credential yet; unauthenticated
// routes still work.
func NewClient(cfg *config.Config, store *credential.Store, log *logging.Logger) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty; run 'ferrite config init' or set FERRITE_API_URL")
	}
	if log == nil {
		log = logging.NewDefaultCLILogger()
	}

	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		store:      store,
		log:        log,
		retry:      http.DefaultConfig(),
	}, nil
}

// BaseURL returns the resolved platform URL, mainly for display.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one wire call. The body is held as bytes so it can be
// replayed for the 401 rescue and for idempotent transport retries;
// streaming uploads use their own path in upload.go.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	accept      string
}

// do runs a JSON request and returns the response for any 2xx status.
// Non-2xx statuses and transport failures come back as *Error.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, requiresAuth bool) (*nethttp.Response, error) {
	r := request{method: method, path: path}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindBadRequest, Message: "failed to encode request body", Err: err}
		}
		r.body = payload
		r.contentType = "application/json"
	}
	return c.send(ctx, r, requiresAuth)
}

// send is the shared request path beneath the typed operations.
func (c *Client) send(ctx context.Context, r request, requiresAuth bool) (*nethttp.Response, error) {
	attempt := func(cred *credential.Credential) (*nethttp.Response, error) {
		resp, err := c.roundTrip(ctx, r, cred)
		if err != nil {
			return nil, &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s %s failed", r.method, r.path), Err: err}
		}
		return resp, nil
	}

	var resp *nethttp.Response
	var err error
	if requiresAuth {
		resp, err = c.authorized(ctx, attempt)
	} else {
		resp, err = attempt(nil)
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, errorFromResponse(resp)
}

// authorized runs an attempt with the stored credential, performing the
// operation's single refresh either proactively (token about to expire) or
// reactively (server said 401), then retrying the attempt once with the
// new token. API keys are not refreshable, so their 401s surface directly.
func (c *Client) authorized(ctx context.Context, attempt func(*credential.Credential) (*nethttp.Response, error)) (*nethttp.Response, error) {
	cred := c.store.Load()
	if cred == nil {
		return nil, &Error{Kind: KindUnauthenticated, Message: "not logged in; run 'ferrite login' first"}
	}

	refreshed := false
	if cred.Type == credential.KindSessionToken && cred.Session.ExpiresWithin(constants.TokenRefreshWindow) {
		fresh, err := c.refreshSession(ctx, cred)
		if err != nil {
			return nil, err
		}
		cred, refreshed = fresh, true
	}

	resp, err := attempt(cred)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != nethttp.StatusUnauthorized {
		return resp, nil
	}

	drainAndClose(resp.Body)
	if cred.Type == credential.KindAPIKey {
		return nil, &Error{
			Kind:       KindUnauthenticated,
			Message:    "API key rejected; it may have been revoked",
			StatusCode: nethttp.StatusUnauthorized,
		}
	}
	if refreshed {
		return nil, errSessionExpired()
	}

	fresh, err := c.refreshSession(ctx, cred)
	if err != nil {
		return nil, err
	}
	resp, err = attempt(fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == nethttp.StatusUnauthorized {
		drainAndClose(resp.Body)
		return nil, errSessionExpired()
	}
	return resp, nil
}

// roundTrip sends the request, retrying transport failures only for
// idempotent methods. A response of any status counts as success here:
// statuses are server decisions, not transport faults.
func (c *Client) roundTrip(ctx context.Context, r request, cred *credential.Credential) (*nethttp.Response, error) {
	attempt := func() (*nethttp.Response, error) {
		req, err := c.newRequest(ctx, r, cred)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Debug().Str("method", r.method).Str("path", r.path).Err(err).Msg("request failed")
			return nil, err
		}
		c.log.Debug().
			Str("method", r.method).
			Str("path", r.path).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request complete")
		return resp, nil
	}

	if !isIdempotent(r.method) {
		return attempt()
	}

	var resp *nethttp.Response
	cfg := c.retry
	cfg.OnRetry = func(n int, err error) {
		c.log.Warn().
			Int("attempt", n).
			Str("method", r.method).
			Str("path", r.path).
			Err(err).
			Msg("retrying after transport failure")
	}
	err := http.ExecuteWithRetry(ctx, cfg, func() error {
		got, err := attempt()
		if err != nil {
			return err
		}
		resp = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, r request, cred *credential.Credential) (*nethttp.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := nethttp.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	applyCredential(req, cred)
	return req, nil
}

// applyCredential sets the auth header for the credential kind: Bearer for
// sessions, X-Api-Key for keys.
func applyCredential(req *nethttp.Request, cred *credential.Credential) {
	switch {
	case cred == nil:
	case cred.Type == credential.KindSessionToken:
		req.Header.Set("Authorization", "Bearer "+cred.Session.AccessToken)
	case cred.Type == credential.KindAPIKey:
		req.Header.Set("X-Api-Key", cred.APIKey.Secret)
	}
}

// isIdempotent reports whether a method may be silently retried after a
// transport failure. POST never is: the server may have acted on it.
func isIdempotent(method string) bool {
	return method == nethttp.MethodGet || method == nethttp.MethodDelete
}

// drainAndClose discards the rest of a body so the transport can reuse the
// connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
	_ = body.Close()
}

func errSessionExpired() *Error {
	return &Error{
		Kind:       KindSessionExpired,
		Message:    "session expired; run 'ferrite login' again",
		StatusCode: nethttp.StatusUnauthorized,
	}
}
