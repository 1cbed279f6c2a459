package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"warren/internal/migrations"
)

// Config holds all configuration for the warren service.
type Config struct {
	DBPath string
	Addr   string
}

// New returns a Config with defaults, overridable via WARREN_DB_PATH
// and WARREN_ADDR.
func New() *Config {
	c := &Config{
		DBPath: "~/warren/data/warren.db",
		Addr:   ":8080",
	}
	if v := os.Getenv("WARREN_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("WARREN_ADDR"); v != "" {
		c.Addr = v
	}
	return c
}

// InitializeDatabase opens the SQLite database, applies pragmas and
// pool settings, and runs migrations.
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	dbPath := c.expandPath(c.DBPath)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys is a per-connection pragma; carrying it in the DSN
	// makes the driver apply it to every pooled connection, so the
	// delete cascades fire no matter which connection runs the DELETE.
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	TunePool(db)
	if err := ApplyPragmas(db); err != nil {
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// expandPath expands a leading ~ to the user's home directory.
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

func runMigrations(db *sql.DB) error {
	migrator := migrations.NewMigrator(db)
	for _, migration := range migrations.All() {
		migrator.Add(migration)
	}
	return migrator.Run()
}
