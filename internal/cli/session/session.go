// Package session owns the authenticated-user state of the CLI. A single
// Manager is the only writer; everything else observes the state through
// read-only snapshots from Current.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/tokenstore"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// State is the lifecycle phase of the session
type State int

const (
	// StateHydrating means the persisted session has not been checked yet
	StateHydrating State = iota
	// StateAnonymous means there is no valid session
	StateAnonymous
	// StateAuthenticated means a user is logged in
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a read-only snapshot of the auth state
type Session struct {
	State State
	User  *models.User
}

// IsLoading reports whether hydration has not completed yet
func (s Session) IsLoading() bool {
	return s.State == StateHydrating
}

// IsAuthenticated reports whether a user is logged in
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// API is the slice of the HTTP client the manager needs. Narrowed to an
// interface so tests can drive the state machine without a server.
type API interface {
	Login(ctx context.Context, username, password string) (*client.LoginResponse, error)
	DevLogin(ctx context.Context, username, password string) (*client.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	InvalidateCache()
}

// Notifier surfaces user-facing feedback (the CLI equivalent of toasts)
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// Manager drives the session state machine
type Manager struct {
	api      API
	tokens   tokenstore.Store
	server   string
	notifier Notifier

	mu       sync.Mutex
	session  Session
	hydrated bool
}

// NewManager creates a manager in the hydrating state
func NewManager(api API, tokens tokenstore.Store, server string, notifier Notifier) *Manager {
	return &Manager{
		api:      api,
		tokens:   tokens,
		server:   server,
		notifier: notifier,
		session:  Session{State: StateHydrating},
	}
}

// Current returns a snapshot of the session state
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Hydrate resolves the persisted session exactly once. If an access token is
// stored it is validated against the identity endpoint; an invalid session is
// torn down silently. Later calls are no-ops.
func (m *Manager) Hydrate(ctx context.Context) {
	m.mu.Lock()
	if m.hydrated {
		m.mu.Unlock()
		return
	}
	m.hydrated = true
	m.mu.Unlock()

	tokens, err := m.tokens.Load(m.server)
	if err != nil || tokens.Access == "" {
		m.setSession(Session{State: StateAnonymous})
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		// Stale or revoked session. No error surfaced to the user.
		_ = m.tokens.Clear(m.server)
		m.setSession(Session{State: StateAnonymous})
		return
	}

	m.setSession(Session{State: StateAuthenticated, User: user})
}

// Login authenticates with a username and password. On success both tokens
// are persisted and the session becomes authenticated; on failure the state
// is left unchanged and the server's message is surfaced.
func (m *Manager) Login(ctx context.Context, username, password string) (*client.LoginResponse, error) {
	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.notifier.Error("Login failed", loginErrorMessage(err))
		return nil, err
	}
	return m.completeLogin(resp, fmt.Sprintf("Logged in as %s", resp.User.FullName))
}

// DevLogin authenticates against the development credentials endpoint
func (m *Manager) DevLogin(ctx context.Context, username, password string) (*client.LoginResponse, error) {
	resp, err := m.api.DevLogin(ctx, username, password)
	if err != nil {
		m.notifier.Error("Login failed", loginErrorMessage(err))
		return nil, err
	}
	return m.completeLogin(resp, fmt.Sprintf("Logged in as %s (%s)", resp.User.Username, resp.User.Role))
}

func (m *Manager) completeLogin(resp *client.LoginResponse, detail string) (*client.LoginResponse, error) {
	if resp.User == nil || resp.AccessToken == "" {
		err := errors.New("login response missing user or tokens")
		m.notifier.Error("Login failed", "Login failed")
		return nil, err
	}

	err := m.tokens.Save(m.server, tokenstore.Tokens{
		Access:  resp.AccessToken,
		Refresh: resp.RefreshToken,
	})
	if err != nil {
		m.notifier.Error("Login failed", "Could not store session tokens")
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	m.api.InvalidateCache()
	m.setSession(Session{State: StateAuthenticated, User: resp.User})
	m.markHydrated()
	m.notifier.Success("Welcome back!", detail)
	return resp, nil
}

// Logout ends the session. The server call is best effort; local teardown
// (tokens, cached data, state) happens unconditionally. Never returns an
// error and is safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	wasAuthenticated := m.Current().IsAuthenticated()

	if wasAuthenticated {
		// Revokes the refresh tokens server-side; ignore failures
		_ = m.api.Logout(ctx)
	}

	_ = m.tokens.Clear(m.server)
	m.api.InvalidateCache()
	m.setSession(Session{State: StateAnonymous})
	m.markHydrated()

	if wasAuthenticated {
		m.notifier.Success("Logged out", "You have been successfully logged out")
	}
}

// RefreshUser re-fetches the current user from the identity endpoint. If the
// fetch fails the session is torn down via Logout.
func (m *Manager) RefreshUser(ctx context.Context) {
	if !m.Current().IsAuthenticated() {
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.Logout(ctx)
		return
	}
	m.setSession(Session{State: StateAuthenticated, User: user})
}

func (m *Manager) setSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

func (m *Manager) markHydrated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrated = true
}

// loginErrorMessage extracts the server's message from a login failure,
// falling back to a generic line
func loginErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Login failed"
}
