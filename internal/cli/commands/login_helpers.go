package commands

import (
	"context"

	"github.com/dairychain-dev/dairychain/internal/cli/session"
	"github.com/dairychain-dev/dairychain/internal/seed"
)

// devCredentialLister is the slice of the API client the dev-account picker
// needs. Narrowed so tests can feed canned credentials.
type devCredentialLister interface {
	DevCredentials(ctx context.Context) (map[string]seed.DevUser, error)
}

// sessionReader exposes the session snapshot to post-login reporting
type sessionReader interface {
	Current() session.Session
}
