package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	config := New()

	if config.DBPath != "~/warren/data/warren.db" {
		t.Errorf("Expected default DBPath, got '%s'", config.DBPath)
	}
	if config.Addr != ":8080" {
		t.Errorf("Expected default Addr ':8080', got '%s'", config.Addr)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("WARREN_DB_PATH", "/tmp/other.db")
	t.Setenv("WARREN_ADDR", ":9090")

	config := New()

	if config.DBPath != "/tmp/other.db" {
		t.Errorf("Expected DBPath from env, got '%s'", config.DBPath)
	}
	if config.Addr != ":9090" {
		t.Errorf("Expected Addr from env, got '%s'", config.Addr)
	}
}

func TestConfig_expandPath(t *testing.T) {
	config := New()

	expanded := config.expandPath("~/test/path")
	if strings.HasPrefix(expanded, "~") {
		t.Errorf("Expected tilde to be expanded, got '%s'", expanded)
	}
	if !strings.HasSuffix(expanded, filepath.Join("test", "path")) {
		t.Errorf("Expected expanded path to keep suffix, got '%s'", expanded)
	}

	absolute := config.expandPath("/var/lib/warren.db")
	if absolute != "/var/lib/warren.db" {
		t.Errorf("Expected absolute path unchanged, got '%s'", absolute)
	}
}

func TestConfig_InitializeDatabase(t *testing.T) {
	config := New()
	config.DBPath = filepath.Join(t.TempDir(), "data", "warren.db")

	db, err := config.InitializeDatabase()
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	}()

	// Migrations ran: core tables exist.
	for _, table := range []string{"networks", "machines", "ssh_keys", "dhcp_ranges", "id_sequences"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count); err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	// Foreign keys are enforced on the connection.
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Error("Expected foreign keys to be enabled")
	}
}
