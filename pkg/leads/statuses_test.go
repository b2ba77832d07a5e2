package leads

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStatusConfig(t *testing.T) {
	t.Run("empty path falls back to defaults", func(t *testing.T) {
		cfg, err := LoadStatusConfig("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Allowed("new") || !cfg.Allowed("closed") {
			t.Fatalf("default statuses missing: %v", cfg.Statuses)
		}
	})

	t.Run("loads from yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "statuses.yaml")
		content := "statuses:\n  - new\n  - nurturing\n  - won\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadStatusConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Allowed("nurturing") {
			t.Fatalf("expected nurturing to be allowed: %v", cfg.Statuses)
		}
		if cfg.Allowed("contacted") {
			t.Fatal("contacted should not be allowed by the custom config")
		}
	})

	t.Run("empty status list rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "statuses.yaml")
		if err := os.WriteFile(path, []byte("statuses: []\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadStatusConfig(path); err == nil {
			t.Fatal("expected error for empty status list")
		}
	})
}

func TestStatusConfigAllowedIsCaseInsensitive(t *testing.T) {
	cfg := DefaultStatuses()
	if !cfg.Allowed("  Contacted ") {
		t.Fatal("expected case-insensitive match")
	}
	if cfg.Allowed("archived") {
		t.Fatal("archived is not a default status")
	}
}
