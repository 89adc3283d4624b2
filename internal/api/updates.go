package api

import (
	"context"
	"encoding/json"
	nethttp "net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ferrite-sec/ferrite-cli/internal/constants"
	"github.com/ferrite-sec/ferrite-cli/internal/logging"
	"github.com/ferrite-sec/ferrite-cli/internal/models"
	"github.com/ferrite-sec/ferrite-cli/internal/version"
)

// retryLogger adapts the CLI logger to retryablehttp's LeveledLogger.
// Only warnings and errors are forwarded; retry chatter stays quiet.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// LatestVersion asks the platform for the newest released CLI version.
// The route is unauthenticated and safe to repeat, so it runs on a stock
// retryablehttp client instead of the method-conditional policy the
// authenticated routes use.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.httpClient
	rc.RetryMax = constants.MaxAttempts - 1
	rc.RetryWaitMin = constants.RetryInitialDelay
	rc.RetryWaitMax = constants.RetryMaxDelay
	rc.Logger = &retryLogger{log: c.log}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.baseURL+"/api/updates_check", nil)
	if err != nil {
		return "", &Error{Kind: KindBadRequest, Message: "failed to build updates request", Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := rc.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "updates check failed", Err: err}
	}

	if resp.StatusCode != nethttp.StatusOK {
		return "", errorFromResponse(resp)
	}

	var release models.LatestRelease
	decodeErr := json.NewDecoder(resp.Body).Decode(&release)
	_ = resp.Body.Close()
	if decodeErr != nil {
		return "", &Error{Kind: KindServerError, Message: "malformed updates response", Err: decodeErr}
	}
	return release.Version, nil
}
