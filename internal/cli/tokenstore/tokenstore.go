// Package tokenstore persists the access/refresh token pair between CLI
// invocations. The default store keeps tokens in the OS keychain, one pair
// per server, so sessions survive restarts without touching disk in plaintext.
package tokenstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "dairychain-cli"
)

// Tokens is the persisted credential pair. Either field may be empty;
// both empty means logged out.
type Tokens struct {
	Access  string
	Refresh string
}

// Store defines the interface for token storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	// Save persists both tokens for a server
	Save(server string, tokens Tokens) error
	// SaveAccess replaces only the access token, leaving the refresh token
	// untouched. Used by the refresh-on-401 path, which must never write the
	// refresh token.
	SaveAccess(server, access string) error
	// Load returns the stored tokens; missing entries come back as empty
	// strings, not errors
	Load(server string) (Tokens, error)
	// Clear removes both tokens. Idempotent.
	Clear(server string) error
}

// Keyring is the default Store backed by the OS keychain/credential manager
type Keyring struct{}

// Default is the store used by the CLI
var Default Store = &Keyring{}

func accessKey(server string) string {
	return fmt.Sprintf("access-%s", server)
}

func refreshKey(server string) string {
	return fmt.Sprintf("refresh-%s", server)
}

// Save persists both tokens securely in the OS keychain
func (k *Keyring) Save(server string, tokens Tokens) error {
	if err := keyring.Set(service, accessKey(server), tokens.Access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if err := keyring.Set(service, refreshKey(server), tokens.Refresh); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// SaveAccess replaces only the stored access token
func (k *Keyring) SaveAccess(server, access string) error {
	if err := keyring.Set(service, accessKey(server), access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

// Load retrieves the token pair from the OS keychain
func (k *Keyring) Load(server string) (Tokens, error) {
	var tokens Tokens

	access, err := keyring.Get(service, accessKey(server))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return Tokens{}, fmt.Errorf("failed to load access token: %w", err)
	}
	tokens.Access = access

	refresh, err := keyring.Get(service, refreshKey(server))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return Tokens{}, fmt.Errorf("failed to load refresh token: %w", err)
	}
	tokens.Refresh = refresh

	return tokens, nil
}

// Clear removes both tokens from the OS keychain
func (k *Keyring) Clear(server string) error {
	for _, key := range []string{accessKey(server), refreshKey(server)} {
		if err := keyring.Delete(service, key); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue // Already deleted
			}
			return fmt.Errorf("failed to delete token: %w", err)
		}
	}
	return nil
}

// Memory is an in-process Store used by tests and as a fallback when no
// keychain is available
type Memory struct {
	tokens map[string]Tokens
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]Tokens)}
}

func (m *Memory) Save(server string, tokens Tokens) error {
	m.tokens[server] = tokens
	return nil
}

func (m *Memory) SaveAccess(server, access string) error {
	t := m.tokens[server]
	t.Access = access
	m.tokens[server] = t
	return nil
}

func (m *Memory) Load(server string) (Tokens, error) {
	return m.tokens[server], nil
}

func (m *Memory) Clear(server string) error {
	delete(m.tokens, server)
	return nil
}
