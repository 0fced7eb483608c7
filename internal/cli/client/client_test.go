package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dairychain-dev/dairychain/internal/cli/tokenstore"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{"username": "alice"})
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "access-abc", Refresh: "refresh-abc"})

	c := New(server.URL, store)
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer access-abc" {
		t.Errorf("expected bearer header 'Bearer access-abc', got %q", gotAuth)
	}
}

func TestClient_RefreshAndRetryOnce(t *testing.T) {
	var meCalls, refreshCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/me":
			calls := atomic.AddInt32(&meCalls, 1)
			if r.Header.Get("Authorization") == "Bearer fresh-token" {
				writeJSON(w, http.StatusOK, map[string]string{"username": "alice"})
				return
			}
			if calls > 2 {
				t.Errorf("request retried more than once")
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			var req struct {
				RefreshToken string `json:"refresh_token"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.RefreshToken != "refresh-abc" {
				t.Errorf("expected refresh token 'refresh-abc', got %q", req.RefreshToken)
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-token", "token_type": "bearer"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "stale-token", Refresh: "refresh-abc"})

	c := New(server.URL, store)
	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", user.Username)
	}

	if refreshCalls != 1 {
		t.Errorf("expected exactly one refresh call, got %d", refreshCalls)
	}
	if meCalls != 2 {
		t.Errorf("expected exactly two identity calls, got %d", meCalls)
	}

	// Only the access token is rewritten; the refresh token is untouched
	tokens, _ := store.Load(server.URL)
	if tokens.Access != "fresh-token" {
		t.Errorf("expected stored access token 'fresh-token', got %q", tokens.Access)
	}
	if tokens.Refresh != "refresh-abc" {
		t.Errorf("refresh token was rewritten: got %q", tokens.Refresh)
	}
}

func TestClient_SecondUnauthorizedClearsTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-token"})
		default:
			// Every request is rejected, fresh token or not
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "account disabled"})
		}
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "stale-token", Refresh: "refresh-abc"})

	c := New(server.URL, store)
	_, err := c.Me(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}

	tokens, _ := store.Load(server.URL)
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected tokens cleared, got %+v", tokens)
	}
}

func TestClient_NoRefreshTokenClearsSession(t *testing.T) {
	var refreshCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			refreshCalled = true
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "stale-token"})

	c := New(server.URL, store)
	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if refreshCalled {
		t.Error("refresh endpoint should not be called without a refresh token")
	}

	tokens, _ := store.Load(server.URL)
	if tokens.Access != "" {
		t.Errorf("expected tokens cleared, got %+v", tokens)
	}
}

func TestClient_RefreshFailurePropagatesOriginalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token revoked"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "stale-token", Refresh: "revoked"})

	c := New(server.URL, store)
	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	// The original 401 rides along for callers that inspect it
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
	if apiErr.Message != "token expired" {
		t.Errorf("expected original failure message, got %q", apiErr.Message)
	}
}

func TestClient_NonAuthErrorsPassThrough(t *testing.T) {
	var refreshCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			refreshCalled = true
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Farmer not found"})
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "access-abc", Refresh: "refresh-abc"})

	c := New(server.URL, store)
	_, err := c.GetFarmer(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("non-401 errors must not expire the session")
	}
	if refreshCalled {
		t.Error("refresh must only run on authorization failures")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.Status)
	}
	if apiErr.Message != "Farmer not found" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}

	// Tokens survive ordinary failures
	tokens, _ := store.Load(server.URL)
	if tokens.Access == "" {
		t.Error("tokens should not be cleared on a non-auth error")
	}
}

func TestClient_RejectedLoginKeepsStoredSession(t *testing.T) {
	var refreshCalled bool
	var loginCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			atomic.AddInt32(&loginCalls, 1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		case "/api/v1/auth/refresh":
			refreshCalled = true
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-token"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	// A valid session is already stored when someone logs in with bad
	// credentials (e.g. switching accounts)
	store := tokenstore.NewMemory()
	store.Save(server.URL, tokenstore.Tokens{Access: "valid-access", Refresh: "valid-refresh"})

	c := New(server.URL, store)
	_, err := c.Login(context.Background(), "bob", "wrong")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("credential rejection must not be reported as an expired session")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Invalid username or password" {
		t.Errorf("expected credential rejection message, got %q", apiErr.Message)
	}

	if refreshCalled {
		t.Error("a rejected login must not trigger a token refresh")
	}
	if loginCalls != 1 {
		t.Errorf("a rejected login must not be retried, got %d calls", loginCalls)
	}

	tokens, _ := store.Load(server.URL)
	if tokens.Access != "valid-access" || tokens.Refresh != "valid-refresh" {
		t.Errorf("stored session must survive a rejected login, got %+v", tokens)
	}
}

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error key", `{"error": "Invalid username or password"}`, "Invalid username or password"},
		{"message key", `{"message": "try again later"}`, "try again later"},
		{"error wins over message", `{"error": "bad", "message": "other"}`, "bad"},
		{"not json", `<html>gateway error</html>`, ""},
		{"empty", ``, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractMessage([]byte(tc.body)); got != tc.want {
				t.Errorf("extractMessage(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}
