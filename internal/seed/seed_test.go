package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev_credentials.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write credentials file: %v", err)
	}
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeCredentials(t, `
users:
  - username: admin
    password: admin123
    full_name: System Administrator
    role: admin
    is_admin: true
  - username: agent
    password: agent123
    full_name: Field Agent
    role: field_agent
`)

	users, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	if users[0].Username != "admin" || !users[0].IsAdmin {
		t.Errorf("unexpected first user: %+v", users[0])
	}
	if users[1].Role != "field_agent" {
		t.Errorf("unexpected role: %q", users[1].Role)
	}
}

func TestLoadCredentials_Defaults(t *testing.T) {
	path := writeCredentials(t, `
users:
  - username: demo
    password: demo123
    full_name: Demo User
`)

	users, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if users[0].Role != "staff" {
		t.Errorf("expected default role staff, got %q", users[0].Role)
	}
	if users[0].Email != "demo@dairychain.local" {
		t.Errorf("expected derived email, got %q", users[0].Email)
	}
}

func TestLoadCredentials_RejectsMissingFields(t *testing.T) {
	path := writeCredentials(t, `
users:
  - username: broken
    full_name: No Password
`)

	if _, err := LoadCredentials(path); err == nil {
		t.Error("expected error for entry without a password")
	}
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	if _, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
