package guard

import (
	"testing"

	"github.com/dairychain-dev/dairychain/internal/cli/session"
	"github.com/dairychain-dev/dairychain/internal/models"
)

func userWithRole(role string, isAdmin bool) *models.User {
	return &models.User{Username: "test", Role: role, IsAdmin: isAdmin}
}

func TestEvaluate_LoadingWhileHydrating(t *testing.T) {
	s := session.Session{State: session.StateHydrating}

	decision := Evaluate(s, "dashboard", Requirement{})
	if decision.Kind != KindLoading {
		t.Errorf("expected loading decision while hydrating, got %v", decision.Kind)
	}
}

func TestEvaluate_AnonymousRedirectsToLogin(t *testing.T) {
	s := session.Session{State: session.StateAnonymous}

	decision := Evaluate(s, "payments ls", Requirement{})
	if decision.Kind != KindLogin {
		t.Fatalf("expected login decision, got %v", decision.Kind)
	}
	if decision.ReturnTo != "payments ls" {
		t.Errorf("expected original command remembered, got %q", decision.ReturnTo)
	}
}

func TestEvaluate_AdminOnlyDeniesStaff(t *testing.T) {
	s := session.Session{
		State: session.StateAuthenticated,
		User:  userWithRole(models.RoleStaff, false),
	}

	decision := Evaluate(s, "staff ls", Requirement{AdminOnly: true})
	if decision.Kind != KindDenied {
		t.Fatalf("expected denied decision, got %v", decision.Kind)
	}
	if decision.Reason == "" {
		t.Error("denied decision must carry a reason")
	}
}

func TestEvaluate_RoleMismatchDenied(t *testing.T) {
	s := session.Session{
		State: session.StateAuthenticated,
		User:  userWithRole(models.RoleFarmer, false),
	}

	decision := Evaluate(s, "collections record", Requirement{RequiredRole: models.RoleStaff})
	if decision.Kind != KindDenied {
		t.Fatalf("expected denied decision, got %v", decision.Kind)
	}
	if decision.Reason != "Your role (farmer) doesn't have access to this resource" {
		t.Errorf("unexpected reason: %q", decision.Reason)
	}
}

func TestEvaluate_AdminBypassesEveryCheck(t *testing.T) {
	cases := []struct {
		name string
		user *models.User
	}{
		{"is_admin flag", userWithRole(models.RoleStaff, true)},
		{"admin role", userWithRole(models.RoleAdmin, false)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := session.Session{State: session.StateAuthenticated, User: tc.user}

			for _, req := range []Requirement{
				{},
				{AdminOnly: true},
				{RequiredRole: models.RoleFieldAgent},
			} {
				if decision := Evaluate(s, "staff ls", req); decision.Kind != KindAllow {
					t.Errorf("admin should pass %+v, got %v", req, decision.Kind)
				}
			}
		})
	}
}

func TestEvaluate_MatchingRoleAllowed(t *testing.T) {
	s := session.Session{
		State: session.StateAuthenticated,
		User:  userWithRole(models.RoleStaff, false),
	}

	decision := Evaluate(s, "collections record", Requirement{RequiredRole: models.RoleStaff})
	if decision.Kind != KindAllow {
		t.Errorf("expected allow for matching role, got %v", decision.Kind)
	}
}

func TestEvaluate_NoRequirementAllowsAnyAuthenticatedUser(t *testing.T) {
	for _, role := range []string{models.RoleStaff, models.RoleFarmer, models.RoleFieldAgent} {
		s := session.Session{
			State: session.StateAuthenticated,
			User:  userWithRole(role, false),
		}
		if decision := Evaluate(s, "dashboard", Requirement{}); decision.Kind != KindAllow {
			t.Errorf("role %s should be allowed without a requirement, got %v", role, decision.Kind)
		}
	}
}
