// Package guard decides whether the current session may run a protected
// command. Evaluate is pure: it inspects a session snapshot and returns a
// decision, it never performs the redirect or prints anything itself.
package guard

import (
	"fmt"

	"github.com/dairychain-dev/dairychain/internal/cli/session"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// Requirement is the access policy of a command
type Requirement struct {
	// RequiredRole restricts the command to one role. Empty means any
	// authenticated user.
	RequiredRole string
	// AdminOnly restricts the command to administrators
	AdminOnly bool
}

// Kind enumerates the possible guard outcomes
type Kind int

const (
	// KindLoading means hydration has not finished; render nothing yet
	KindLoading Kind = iota
	// KindLogin means the user must authenticate first
	KindLogin
	// KindDenied means the user is authenticated but not authorized
	KindDenied
	// KindAllow means the command may run
	KindAllow
)

// Decision is the guard verdict for one command invocation
type Decision struct {
	Kind Kind
	// ReturnTo carries the originally requested command for a KindLogin
	// decision, so it can be replayed after authentication
	ReturnTo string
	// Reason explains a KindDenied decision
	Reason string
}

// Evaluate checks the session against a command's access requirement.
// target is the command being attempted; it is remembered on the login
// decision so the user can be sent back after authenticating.
func Evaluate(s session.Session, target string, req Requirement) Decision {
	if s.IsLoading() {
		return Decision{Kind: KindLoading}
	}
	if !s.IsAuthenticated() {
		return Decision{Kind: KindLogin, ReturnTo: target}
	}
	if !isAuthorized(s.User, req) {
		return Decision{Kind: KindDenied, Reason: deniedReason(s.User, req)}
	}
	return Decision{Kind: KindAllow}
}

// isAuthorized is the single authorization predicate. Administrators pass
// every check; everyone else must satisfy the requirement's role.
func isAuthorized(user *models.User, req Requirement) bool {
	if user.IsAdmin || user.Role == models.RoleAdmin {
		return true
	}
	if req.AdminOnly {
		return false
	}
	if req.RequiredRole != "" && user.Role != req.RequiredRole {
		return false
	}
	return true
}

func deniedReason(user *models.User, req Requirement) string {
	if req.AdminOnly {
		return "You don't have permission to access this page"
	}
	return fmt.Sprintf("Your role (%s) doesn't have access to this resource", user.Role)
}
