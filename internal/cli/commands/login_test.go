package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dairychain-dev/dairychain/internal/cli/config"
	"github.com/dairychain-dev/dairychain/internal/cli/session"
	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/seed"
)

// setupTestEnvironment creates a temporary project directory with a
// dairychain.json and chdirs into it
func setupTestEnvironment(t *testing.T, servers []config.Server) {
	t.Helper()

	tempDir := t.TempDir()

	cfg := config.Config{Servers: servers}
	cfgData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, config.ConfigFileName), cfgData, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })

	// Keep the user config inside the sandbox too
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg"))
}

func TestLoginCommand_Structure(t *testing.T) {
	cmd := NewLoginCmd()

	if cmd.Use != "login" {
		t.Errorf("expected Use to be 'login', got %s", cmd.Use)
	}

	for _, flag := range []string{"username", "password", "server", "dev"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to exist", flag)
		}
	}
}

func TestLoginCommand_MissingUsername(t *testing.T) {
	setupTestEnvironment(t, []config.Server{
		{Alias: "test-server", URL: "http://127.0.0.1:1"},
	})

	os.Unsetenv("DAIRYCHAIN_USERNAME")
	os.Unsetenv("DAIRYCHAIN_PASSWORD")

	cmd := NewLoginCmd()
	cmd.SetContext(context.Background())
	err := runLogin(cmd, "", "password123", "", false)
	if err == nil {
		t.Fatal("expected error when username is missing, got nil")
	}

	expectedError := "username is required (use --username flag or DAIRYCHAIN_USERNAME env var)"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestLoginCommand_NoConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	originalDir, _ := os.Getwd()
	os.Chdir(tempDir)
	t.Cleanup(func() { os.Chdir(originalDir) })

	cmd := NewLoginCmd()
	cmd.SetContext(context.Background())
	err := runLogin(cmd, "alice", "password123", "", false)
	if err == nil {
		t.Fatal("expected error when config file is missing, got nil")
	}
	if err.Error()[:22] != "failed to load config:" {
		t.Errorf("expected error to start with 'failed to load config:', got '%s'", err.Error())
	}
}

func TestLoginCommand_EmptyServerURL(t *testing.T) {
	setupTestEnvironment(t, []config.Server{
		{Alias: "test-server", URL: ""},
	})

	cmd := NewLoginCmd()
	cmd.SetContext(context.Background())
	err := runLogin(cmd, "alice", "password123", "", false)
	if err == nil {
		t.Fatal("expected error when server URL is empty, got nil")
	}
}

// fakeCredentialLister feeds canned development accounts to the picker
type fakeCredentialLister struct {
	creds map[string]seed.DevUser
	err   error
}

func (f *fakeCredentialLister) DevCredentials(ctx context.Context) (map[string]seed.DevUser, error) {
	return f.creds, f.err
}

func TestPickDevCredential_EmptyList(t *testing.T) {
	cmd := NewLoginCmd()
	cmd.SetContext(context.Background())

	lister := &fakeCredentialLister{creds: map[string]seed.DevUser{}}
	_, _, err := pickDevCredential(cmd, lister)
	if err == nil {
		t.Error("expected error when server has no development accounts")
	}
}

// fakeSessionReader returns a fixed snapshot
type fakeSessionReader struct {
	session session.Session
}

func (f *fakeSessionReader) Current() session.Session {
	return f.session
}

func TestPrintPostLogin_NoUser(t *testing.T) {
	reader := &fakeSessionReader{session: session.Session{State: session.StateAnonymous}}
	if err := printPostLogin(reader); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPrintPostLogin_WithUser(t *testing.T) {
	setupTestEnvironment(t, []config.Server{
		{Alias: "test-server", URL: "http://127.0.0.1:1"},
	})

	user := &models.User{Username: "alice", FullName: "Alice Wanjiku", Role: models.RoleStaff}
	reader := &fakeSessionReader{session: session.Session{
		State: session.StateAuthenticated,
		User:  user,
	}}
	if err := printPostLogin(reader); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
