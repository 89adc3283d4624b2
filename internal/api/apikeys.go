package api

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/ferrite-sec/ferrite-cli/internal/models"
)

// CreateAPIKey mints a new key. The returned record is the only time the
// secret is ever revealed; list responses never carry it.
func (c *Client) CreateAPIKey(ctx context.Context, label string) (*models.APIKeyRecord, error) {
	if strings.TrimSpace(label) == "" {
		return nil, &Error{Kind: KindBadRequest, Message: "API key label is required"}
	}

	body := models.APIKeyCreateRequest{Label: label}
	resp, err := c.do(ctx, nethttp.MethodPost, "/api/v1/api_key", body, true)
	if err != nil {
		// The platform answers 400 "API key already present" instead of
		// 409 on this route; surface it as the conflict it is.
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == nethttp.StatusBadRequest &&
			strings.Contains(strings.ToLower(apiErr.Message), "already") {
			apiErr.Kind = KindConflict
		}
		return nil, err
	}
	defer resp.Body.Close()

	var record models.APIKeyRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed API key response", Err: err}
	}
	return &record, nil
}

// ListAPIKeys returns the account's keys without their secrets. A 204
// means no keys exist yet.
func (c *Client) ListAPIKeys(ctx context.Context) ([]models.APIKeyRecord, error) {
	resp, err := c.do(ctx, nethttp.MethodGet, "/api/v1/api_key", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == nethttp.StatusNoContent {
		return []models.APIKeyRecord{}, nil
	}

	var records []models.APIKeyRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed API key list", Err: err}
	}
	return records, nil
}

// DeleteAPIKey revokes a key server-side.
func (c *Client) DeleteAPIKey(ctx context.Context, keyID string) error {
	if strings.TrimSpace(keyID) == "" {
		return &Error{Kind: KindBadRequest, Message: "API key id is required"}
	}

	path := "/api/v1/api_key/" + url.PathEscape(keyID)
	resp, err := c.do(ctx, nethttp.MethodDelete, path, nil, true)
	if err != nil {
		return describeNotFound(err, "API key "+keyID)
	}
	drainAndClose(resp.Body)
	return nil
}
