package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfigFile_WalksUpTree(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	cfgPath := filepath.Join(root, ConfigFileName)
	if err := DefaultConfig().Save(cfgPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	found, err := FindConfigFile(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != cfgPath {
		t.Errorf("expected %s, got %s", cfgPath, found)
	}
}

func TestFindConfigFile_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := FindConfigFile(dir)
	if err == nil {
		t.Error("expected error when no config exists, got nil")
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := &Config{Servers: []Server{
		{URL: "http://localhost:8002", Alias: "local"},
		{URL: "https://dairy.example.com", Alias: "prod"},
	}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}
	if loaded.Servers[1].Alias != "prod" {
		t.Errorf("unexpected alias: %q", loaded.Servers[1].Alias)
	}
}

func TestGetServerByAlias(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{URL: "http://localhost:8002", Alias: "local"},
		{URL: "https://dairy.example.com", Alias: "prod"},
	}}

	server, err := cfg.GetServerByAlias("prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.URL != "https://dairy.example.com" {
		t.Errorf("unexpected URL: %q", server.URL)
	}

	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias, got nil")
	}
}

func TestGetDefaultServer(t *testing.T) {
	empty := &Config{}
	if _, err := empty.GetDefaultServer(); err == nil {
		t.Error("expected error for empty config, got nil")
	}

	cfg := &Config{Servers: []Server{{URL: "http://localhost:8002", Alias: "local"}}}
	server, err := cfg.GetDefaultServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "local" {
		t.Errorf("expected first server, got %q", server.Alias)
	}
}
