// Package credential persists the single credential the CLI authenticates
// with: either a refreshable session token pair or a long-lived API key.
package credential

import (
	"time"
)

// Kind discriminates the stored credential type.
type Kind string

const (
	// KindSessionToken is a short-lived access/refresh token pair.
	KindSessionToken Kind = "session_token"

	// KindAPIKey is a long-lived key that never expires client-side.
	KindAPIKey Kind = "api_key"
)

// SessionToken is the password-login credential. AccessToken authenticates
// requests until ExpiresAt; RefreshToken obtains the next pair.
type SessionToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresWithin reports whether the access token expires inside the given
// window from now. Used to refresh proactively instead of racing expiry
// mid-request.
func (s *SessionToken) ExpiresWithin(window time.Duration) bool {
	return !time.Now().Add(window).Before(s.ExpiresAt)
}

// APIKey is the non-expiring credential. KeyID identifies the key on the
// management routes; Secret is what authenticates requests.
type APIKey struct {
	KeyID  string `json:"key_id"`
	Secret string `json:"secret"`
}

// Credential is a tagged union: exactly one of Session or APIKey is set,
// matching Type. At most one credential is stored at a time; saving either
// kind replaces whatever was there.
type Credential struct {
	Type    Kind          `json:"type"`
	Session *SessionToken `json:"session_token,omitempty"`
	APIKey  *APIKey       `json:"api_key,omitempty"`
}

// NewSessionToken builds a session credential with an absolute expiry.
func NewSessionToken(access, refresh string, expiresAt time.Time) *Credential {
	return &Credential{
		Type: KindSessionToken,
		Session: &SessionToken{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiresAt.UTC(),
		},
	}
}

// NewAPIKey builds an API key credential.
func NewAPIKey(keyID, secret string) *Credential {
	return &Credential{
		Type: KindAPIKey,
		APIKey: &APIKey{
			KeyID:  keyID,
			Secret: secret,
		},
	}
}

// wellFormed reports whether the decoded credential satisfies the union
// invariant. Anything else on disk is treated as corruption by the store.
func (c *Credential) wellFormed() bool {
	if c == nil {
		return false
	}
	switch c.Type {
	case KindSessionToken:
		return c.Session != nil && c.APIKey == nil &&
			c.Session.AccessToken != "" && c.Session.RefreshToken != ""
	case KindAPIKey:
		return c.APIKey != nil && c.Session == nil &&
			c.APIKey.KeyID != "" && c.APIKey.Secret != ""
	default:
		return false
	}
}
