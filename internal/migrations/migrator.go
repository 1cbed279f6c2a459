// Package migrations manages the SQLite schema with ordered, versioned
// migrations tracked in a schema_migrations table.
package migrations

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one schema change. Up and Down run inside the same
// transaction that records the version, so a failed migration leaves no
// trace.
type Migration struct {
	Version int64
	Name    string
	Up      func(*sql.Tx) error
	Down    func(*sql.Tx) error
}

// Migrator applies registered migrations in version order.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Add registers a migration, keeping the list sorted by version.
func (m *Migrator) Add(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// Run applies all migrations newer than the recorded version.
func (m *Migrator) Run() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to read current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(migration); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or 0.
func (m *Migrator) CurrentVersion() (int64, error) {
	var version int64
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *Migrator) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	// Rollback after a successful commit returns ErrTxDone, which is fine.
	defer func() { _ = tx.Rollback() }()

	if err := migration.Up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name); err != nil {
		return err
	}
	return tx.Commit()
}
