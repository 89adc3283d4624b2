// Package session orchestrates the credential lifecycle: password login,
// explicit token refresh, logout, and API key management. It sits between
// the CLI commands and the API client, owning every transition that
// changes which credential the client presents.
package session

import (
	"context"

	"github.com/ferrite-sec/ferrite-cli/internal/api"
	"github.com/ferrite-sec/ferrite-cli/internal/credential"
	"github.com/ferrite-sec/ferrite-cli/internal/logging"
	"github.com/ferrite-sec/ferrite-cli/internal/models"
)

// State is the manager's position in the credential lifecycle.
// Authenticating and Refreshing exist only while a transition is in
// flight; between commands the store decides LoggedOut vs Active.
type State int

const (
	// LoggedOut means no usable credential is stored.
	LoggedOut State = iota

	// Authenticating means a login call is in flight.
	Authenticating

	// Active means a credential is stored and presented on requests.
	Active

	// Refreshing means an explicit token rotation is in flight.
	Refreshing
)

// String returns the name used in logs.
func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Manager drives the credential state machine. Each CLI invocation builds
// one manager, performs one operation, and exits; the credential store is
// the durable state between runs, so the constructor derives the starting
// state from it.
//
// The lazy expired-token refresh on authenticated requests lives in the
// client, not here: the manager owns deliberate transitions (login,
// logout, explicit refresh, key adoption), the client owns keeping a
// request authenticated mid-flight.
type Manager struct {
	client *api.Client
	store  *credential.Store
	log    *logging.Logger
	state  State
}

// NewManager builds a manager over the client and store.
func NewManager(client *api.Client, store *credential.Store, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewDefaultCLILogger()
	}
	m := &Manager{
		client: client,
		store:  store,
		log:    log,
		state:  LoggedOut,
	}
	if store.Load() != nil {
		m.state = Active
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Current returns the stored credential, or nil when logged out.
func (m *Manager) Current() *credential.Credential {
	return m.store.Load()
}

// Login authenticates with username and password and stores the session
// pair. On failure the manager lands back in LoggedOut and the classified
// error says whether the credentials were rejected or the network failed.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.state = Authenticating
	if err := m.client.Login(ctx, username, password); err != nil {
		m.state = LoggedOut
		return err
	}
	m.state = Active
	m.log.Debug().Str("state", m.state.String()).Msg("login complete")
	return nil
}

// Refresh rotates the stored session pair now instead of waiting for the
// next request to need it. A rejected refresh means the pair is dead: the
// store is cleared and the caller must log in again. Transport failures
// leave the credential in place so a later attempt can still succeed.
func (m *Manager) Refresh(ctx context.Context) error {
	cred := m.store.Load()
	if cred == nil {
		return &api.Error{Kind: api.KindUnauthenticated, Message: "not logged in; run 'ferrite login' first"}
	}
	if cred.Type != credential.KindSessionToken {
		return &api.Error{Kind: api.KindBadRequest, Message: "API key credentials do not refresh"}
	}

	m.state = Refreshing
	err := m.client.Refresh(ctx)
	if err == nil {
		m.state = Active
		return nil
	}

	switch api.KindOf(err) {
	case api.KindSessionExpired, api.KindUnauthenticated:
		if clearErr := m.store.Clear(); clearErr != nil {
			m.log.Warnf("Failed to clear rejected session: %v", clearErr)
		}
		m.state = LoggedOut
	default:
		// Network or server fault: the stored pair may still be good.
		m.state = Active
	}
	return err
}

// Logout discards the stored credential. It succeeds from any state,
// including when nothing is stored, so repeated logouts are harmless.
// There is no remote call: the platform has no token revocation route,
// sessions die by expiry.
func (m *Manager) Logout() error {
	err := m.store.Clear()
	m.state = LoggedOut
	if err != nil {
		return &api.Error{Kind: api.KindLocalStorage, Message: "failed to clear stored credential", Err: err}
	}
	return nil
}

// CreateAPIKey mints a new key under whatever credential is active. The
// returned record is the only place the secret ever appears. With adopt
// set the new key replaces the stored credential, so later commands
// authenticate with it instead of the session that created it.
func (m *Manager) CreateAPIKey(ctx context.Context, label string, adopt bool) (*models.APIKeyRecord, error) {
	record, err := m.client.CreateAPIKey(ctx, label)
	if err != nil {
		return nil, err
	}

	if adopt {
		if record.Secret == "" {
			return record, &api.Error{Kind: api.KindServerError, Message: "server returned no secret for the new API key"}
		}
		if err := m.store.Save(credential.NewAPIKey(record.KeyID, record.Secret)); err != nil {
			return record, &api.Error{Kind: api.KindLocalStorage, Message: "failed to store new API key", Err: err}
		}
		m.state = Active
		m.log.Debug().Str("key_id", record.KeyID).Msg("adopted API key as active credential")
	}
	return record, nil
}

// ListAPIKeys returns the account's keys. Secrets are never present.
func (m *Manager) ListAPIKeys(ctx context.Context) ([]models.APIKeyRecord, error) {
	return m.client.ListAPIKeys(ctx)
}

// DeleteAPIKey revokes a key server-side. When the deleted key is the
// stored credential, the store is cleared too: keeping a revoked secret
// around would just turn every later command into a confusing 401.
func (m *Manager) DeleteAPIKey(ctx context.Context, keyID string) error {
	if err := m.client.DeleteAPIKey(ctx, keyID); err != nil {
		return err
	}

	cred := m.store.Load()
	if cred != nil && cred.Type == credential.KindAPIKey && cred.APIKey.KeyID == keyID {
		if err := m.store.Clear(); err != nil {
			return &api.Error{Kind: api.KindLocalStorage, Message: "key revoked but local credential not cleared", Err: err}
		}
		m.state = LoggedOut
		m.log.Debug().Str("key_id", keyID).Msg("deleted key was the active credential; store cleared")
	}
	return nil
}
