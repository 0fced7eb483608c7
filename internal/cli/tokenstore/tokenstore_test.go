package tokenstore

import "testing"

func TestMemory_SaveAndLoad(t *testing.T) {
	store := NewMemory()

	err := store.Save("http://localhost:8002", Tokens{Access: "a1", Refresh: "r1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokens, err := store.Load("http://localhost:8002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.Access != "a1" || tokens.Refresh != "r1" {
		t.Errorf("unexpected tokens: %+v", tokens)
	}
}

func TestMemory_LoadMissingReturnsEmpty(t *testing.T) {
	store := NewMemory()

	tokens, err := store.Load("http://nowhere")
	if err != nil {
		t.Fatalf("missing entry must not be an error, got %v", err)
	}
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected empty tokens, got %+v", tokens)
	}
}

func TestMemory_SaveAccessKeepsRefresh(t *testing.T) {
	store := NewMemory()
	store.Save("srv", Tokens{Access: "old", Refresh: "keep"})

	if err := store.SaveAccess("srv", "new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokens, _ := store.Load("srv")
	if tokens.Access != "new" {
		t.Errorf("expected access token replaced, got %q", tokens.Access)
	}
	if tokens.Refresh != "keep" {
		t.Errorf("expected refresh token untouched, got %q", tokens.Refresh)
	}
}

func TestMemory_ClearIsIdempotent(t *testing.T) {
	store := NewMemory()
	store.Save("srv", Tokens{Access: "a", Refresh: "r"})

	if err := store.Clear("srv"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Clear("srv"); err != nil {
		t.Fatalf("second clear must be a no-op, got %v", err)
	}

	tokens, _ := store.Load("srv")
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected empty tokens after clear, got %+v", tokens)
	}
}

func TestMemory_ServersAreIsolated(t *testing.T) {
	store := NewMemory()
	store.Save("one", Tokens{Access: "a1"})
	store.Save("two", Tokens{Access: "a2"})

	store.Clear("one")

	tokens, _ := store.Load("two")
	if tokens.Access != "a2" {
		t.Errorf("clearing one server must not touch another, got %+v", tokens)
	}
}
