package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	if cfg.BaseURL != Default().BaseURL {
		t.Errorf("BaseURL: got %s, want %s", cfg.BaseURL, Default().BaseURL)
	}
	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds: got %d, want 30", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.UI.GuardMinDelayMs != 500 {
		t.Errorf("GuardMinDelayMs: got %d, want 500", cfg.UI.GuardMinDelayMs)
	}
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "base_url = \"https://deck.example.com/\"\n\n[http]\ntimeout_seconds = 5\nretry_max = 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if cfg.BaseURL != "https://deck.example.com" {
		t.Errorf("BaseURL: got %s, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.HTTP.TimeoutSeconds != 5 {
		t.Errorf("TimeoutSeconds: got %d, want 5", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.HTTP.RetryMax != 1 {
		t.Errorf("RetryMax: got %d, want 1", cfg.HTTP.RetryMax)
	}
}

func TestLoadOrCreateRejectsEmptyBaseURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("base_url = \"  \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadOrCreate(path); err == nil {
		t.Fatal("expected error for empty base_url")
	}
}
