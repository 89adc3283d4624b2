package api

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/ferrite-sec/ferrite-cli/internal/credential"
	"github.com/ferrite-sec/ferrite-cli/internal/models"
)

// Login authenticates with username and password and stores the resulting
// session pair, replacing whatever credential was stored before. A 401
// surfaces as KindUnauthenticated: bad credentials, not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := models.LoginRequest{Username: username, Password: password}
	resp, err := c.do(ctx, nethttp.MethodPost, "/api/v1/auth/login", body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var tokens models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return &Error{Kind: KindServerError, Message: "malformed login response", Err: err}
	}

	cred := credential.NewSessionToken(tokens.AccessToken, tokens.RefreshToken, expiryFrom(tokens.ExpiresIn))
	if err := c.store.Save(cred); err != nil {
		return &Error{Kind: KindLocalStorage, Message: "failed to save session", Err: err}
	}

	c.log.Debug().Time("expires_at", cred.Session.ExpiresAt).Msg("session established")
	return nil
}

// Refresh rotates the stored session pair immediately, regardless of how
// close it is to expiry. The session manager's explicit refresh transition
// runs through here; the lazy per-request refresh in send does not.
func (c *Client) Refresh(ctx context.Context) error {
	cred := c.store.Load()
	if cred == nil {
		return &Error{Kind: KindUnauthenticated, Message: "not logged in; run 'ferrite login' first"}
	}
	if cred.Type != credential.KindSessionToken {
		return &Error{Kind: KindBadRequest, Message: "API key credentials do not refresh"}
	}
	_, err := c.refreshSession(ctx, cred)
	return err
}

// refreshSession rotates the token pair with the stored refresh token and
// persists the result. Callers guarantee it runs at most once per logical
// operation. Any 4xx from the server means the refresh token itself is
// dead, which is a session expiry.
func (c *Client) refreshSession(ctx context.Context, cur *credential.Credential) (*credential.Credential, error) {
	c.log.Debug().Msg("refreshing session token")

	payload, err := json.Marshal(models.RefreshRequest{RefreshToken: cur.Session.RefreshToken})
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Message: "failed to encode refresh request", Err: err}
	}
	r := request{
		method:      nethttp.MethodPost,
		path:        "/api/v1/auth/refresh",
		body:        payload,
		contentType: "application/json",
	}

	resp, err := c.roundTrip(ctx, r, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "session refresh failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		drainAndClose(resp.Body)
		if resp.StatusCode >= 500 {
			return nil, &Error{Kind: KindServerError, Message: "session refresh failed", StatusCode: resp.StatusCode}
		}
		return nil, errSessionExpired()
	}

	var tokens models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed refresh response", Err: err}
	}

	fresh := credential.NewSessionToken(tokens.AccessToken, tokens.RefreshToken, expiryFrom(tokens.ExpiresIn))
	if err := c.store.Save(fresh); err != nil {
		return nil, &Error{Kind: KindLocalStorage, Message: "failed to save refreshed session", Err: err}
	}
	return fresh, nil
}

// expiryFrom converts the server's relative lifetime into the absolute
// deadline the credential store keeps.
func expiryFrom(expiresIn int64) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
