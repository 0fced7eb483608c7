package session

import (
	"context"
	"errors"
	"testing"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/tokenstore"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// fakeAPI is a scriptable stand-in for the HTTP client
type fakeAPI struct {
	loginResp    *client.LoginResponse
	loginErr     error
	meUser       *models.User
	meErr        error
	logoutErr    error
	meCalls      int
	logoutCalls  int
	cacheDropped int
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*client.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) DevLogin(ctx context.Context, username, password string) (*client.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.meCalls++
	return f.meUser, f.meErr
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) InvalidateCache() {
	f.cacheDropped++
}

// recordingNotifier captures toasts for assertions
type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(title, message string) {
	n.successes = append(n.successes, title+": "+message)
}

func (n *recordingNotifier) Error(title, message string) {
	n.errors = append(n.errors, title+": "+message)
}

const testServer = "http://localhost:8002"

func testUser() *models.User {
	user := &models.User{
		Username: "alice",
		FullName: "Alice Wanjiku",
		Role:     models.RoleStaff,
	}
	user.ID = "01HYTESTUSER00000000000000"
	return user
}

func newTestManager(api API) (*Manager, *tokenstore.Memory, *recordingNotifier) {
	store := tokenstore.NewMemory()
	notifier := &recordingNotifier{}
	return NewManager(api, store, testServer, notifier), store, notifier
}

func TestManager_StartsHydrating(t *testing.T) {
	manager, _, _ := newTestManager(&fakeAPI{})

	current := manager.Current()
	if current.State != StateHydrating {
		t.Errorf("expected initial state hydrating, got %s", current.State)
	}
	if !current.IsLoading() {
		t.Error("expected IsLoading before hydration")
	}
	if current.IsAuthenticated() {
		t.Error("expected not authenticated before hydration")
	}
}

func TestManager_HydrateWithoutTokens(t *testing.T) {
	api := &fakeAPI{}
	manager, _, _ := newTestManager(api)

	manager.Hydrate(context.Background())

	current := manager.Current()
	if current.State != StateAnonymous {
		t.Errorf("expected anonymous after hydrating empty store, got %s", current.State)
	}
	if api.meCalls != 0 {
		t.Error("no identity call expected without a stored token")
	}
}

func TestManager_HydrateWithValidToken(t *testing.T) {
	api := &fakeAPI{meUser: testUser()}
	manager, store, notifier := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "access-abc", Refresh: "refresh-abc"})

	manager.Hydrate(context.Background())

	current := manager.Current()
	if !current.IsAuthenticated() {
		t.Fatalf("expected authenticated, got %s", current.State)
	}
	if current.User.Username != "alice" {
		t.Errorf("expected user alice, got %q", current.User.Username)
	}
	if len(notifier.successes)+len(notifier.errors) != 0 {
		t.Error("hydration must not notify")
	}
}

func TestManager_HydrateRunsOnce(t *testing.T) {
	api := &fakeAPI{meUser: testUser()}
	manager, store, _ := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "access-abc"})

	manager.Hydrate(context.Background())
	manager.Hydrate(context.Background())
	manager.Hydrate(context.Background())

	if api.meCalls != 1 {
		t.Errorf("expected a single identity call, got %d", api.meCalls)
	}
}

func TestManager_HydrateFailureIsSilent(t *testing.T) {
	api := &fakeAPI{meErr: errors.New("token expired")}
	manager, store, notifier := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "stale", Refresh: "stale"})

	manager.Hydrate(context.Background())

	current := manager.Current()
	if current.State != StateAnonymous {
		t.Errorf("expected anonymous after failed hydration, got %s", current.State)
	}
	tokens, _ := store.Load(testServer)
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Error("expected stale tokens cleared")
	}
	if len(notifier.errors) != 0 {
		t.Errorf("failed hydration must not surface errors, got %v", notifier.errors)
	}
}

func TestManager_LoginPersistsTokensAndNotifies(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{
		Success:      true,
		AccessToken:  "access-abc",
		RefreshToken: "refresh-abc",
		User:         testUser(),
		RedirectURL:  "/",
	}}
	manager, store, notifier := newTestManager(api)

	resp, err := manager.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RedirectURL != "/" {
		t.Errorf("expected redirect hint, got %q", resp.RedirectURL)
	}

	if !manager.Current().IsAuthenticated() {
		t.Error("expected authenticated after login")
	}

	tokens, _ := store.Load(testServer)
	if tokens.Access != "access-abc" || tokens.Refresh != "refresh-abc" {
		t.Errorf("expected both tokens persisted, got %+v", tokens)
	}

	if len(notifier.successes) != 1 {
		t.Fatalf("expected one success toast, got %v", notifier.successes)
	}
	if notifier.successes[0] != "Welcome back!: Logged in as Alice Wanjiku" {
		t.Errorf("unexpected toast: %q", notifier.successes[0])
	}
	if api.cacheDropped == 0 {
		t.Error("login must invalidate cached data")
	}
}

func TestManager_LoginFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{loginErr: &client.APIError{Status: 401, Message: "Invalid username or password"}}
	manager, store, notifier := newTestManager(api)
	manager.Hydrate(context.Background())

	_, err := manager.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if manager.Current().State != StateAnonymous {
		t.Errorf("failed login must leave the session anonymous, got %s", manager.Current().State)
	}
	tokens, _ := store.Load(testServer)
	if tokens.Access != "" {
		t.Error("failed login must not persist tokens")
	}

	if len(notifier.errors) != 1 {
		t.Fatalf("expected one error toast, got %v", notifier.errors)
	}
	if notifier.errors[0] != "Login failed: Invalid username or password" {
		t.Errorf("expected server message surfaced, got %q", notifier.errors[0])
	}
}

func TestManager_LoginFailureGenericMessage(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("connection refused")}
	manager, _, notifier := newTestManager(api)

	_, err := manager.Login(context.Background(), "alice", "secret")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if notifier.errors[0] != "Login failed: Login failed" {
		t.Errorf("expected generic message for non-API errors, got %q", notifier.errors[0])
	}
}

func TestManager_LogoutAlwaysTearsDown(t *testing.T) {
	api := &fakeAPI{meUser: testUser(), logoutErr: errors.New("server unreachable")}
	manager, store, notifier := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "access-abc", Refresh: "refresh-abc"})
	manager.Hydrate(context.Background())

	// Remote call fails, teardown happens anyway and nothing panics
	manager.Logout(context.Background())

	if manager.Current().State != StateAnonymous {
		t.Errorf("expected anonymous after logout, got %s", manager.Current().State)
	}
	tokens, _ := store.Load(testServer)
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected tokens cleared, got %+v", tokens)
	}
	if api.cacheDropped == 0 {
		t.Error("logout must invalidate cached data")
	}
	if len(notifier.successes) != 1 {
		t.Errorf("expected logout confirmation, got %v", notifier.successes)
	}
}

func TestManager_LogoutIdempotent(t *testing.T) {
	api := &fakeAPI{}
	manager, _, notifier := newTestManager(api)
	manager.Hydrate(context.Background())

	manager.Logout(context.Background())
	manager.Logout(context.Background())

	if api.logoutCalls != 0 {
		t.Errorf("anonymous logout must skip the server call, got %d calls", api.logoutCalls)
	}
	if len(notifier.successes) != 0 {
		t.Errorf("anonymous logout should not toast, got %v", notifier.successes)
	}
	if manager.Current().State != StateAnonymous {
		t.Errorf("expected anonymous, got %s", manager.Current().State)
	}
}

func TestManager_LoginLogoutRoundTrip(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{
		Success:      true,
		AccessToken:  "access-abc",
		RefreshToken: "refresh-abc",
		User:         testUser(),
	}}
	manager, store, _ := newTestManager(api)

	manager.Hydrate(context.Background())
	if _, err := manager.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if !manager.Current().IsAuthenticated() {
		t.Fatal("expected authenticated after login")
	}

	manager.Logout(context.Background())

	if manager.Current().State != StateAnonymous {
		t.Errorf("expected anonymous after logout, got %s", manager.Current().State)
	}
	tokens, _ := store.Load(testServer)
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected no persisted tokens after the round trip, got %+v", tokens)
	}

	// A fresh process over the same empty store hydrates to anonymous
	// without touching the network
	identityCalls := api.meCalls
	restarted := NewManager(api, store, testServer, &recordingNotifier{})
	restarted.Hydrate(context.Background())

	if restarted.Current().State != StateAnonymous {
		t.Errorf("expected anonymous after rehydrating empty store, got %s", restarted.Current().State)
	}
	if api.meCalls != identityCalls {
		t.Error("rehydrating an empty store must not call the identity endpoint")
	}
}

func TestManager_RefreshUserUpdatesSnapshot(t *testing.T) {
	api := &fakeAPI{meUser: testUser()}
	manager, store, _ := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "access-abc"})
	manager.Hydrate(context.Background())

	updated := testUser()
	updated.FullName = "Alice W. Kamau"
	api.meUser = updated

	manager.RefreshUser(context.Background())

	if got := manager.Current().User.FullName; got != "Alice W. Kamau" {
		t.Errorf("expected refreshed profile, got %q", got)
	}
}

func TestManager_RefreshUserFailureLogsOut(t *testing.T) {
	api := &fakeAPI{meUser: testUser()}
	manager, store, _ := newTestManager(api)
	store.Save(testServer, tokenstore.Tokens{Access: "access-abc", Refresh: "refresh-abc"})
	manager.Hydrate(context.Background())

	api.meErr = errors.New("account disabled")
	manager.RefreshUser(context.Background())

	if manager.Current().State != StateAnonymous {
		t.Errorf("expected teardown after refresh failure, got %s", manager.Current().State)
	}
	tokens, _ := store.Load(testServer)
	if tokens.Access != "" {
		t.Error("expected tokens cleared after refresh failure")
	}
}
