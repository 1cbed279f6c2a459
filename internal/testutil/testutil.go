// Package testutil provides shared test database helpers.
package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"warren/internal/migrations"
)

// NewTestDSN returns a DSN for a shared in-memory SQLite database named
// after the test, so parallel tests never collide. The DSN carries the
// foreign_keys pragma so every pooled connection enforces it.
func NewTestDSN(testName string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", testName)
}

// SetupTestDB opens an in-memory test database with foreign keys on.
// The returned cleanup closes it.
func SetupTestDB(t *testing.T, testName string) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	}
}

// SetupTestDBWithMigrations opens a test database and applies the full
// schema.
func SetupTestDBWithMigrations(t *testing.T, testName string) (*sql.DB, func()) {
	t.Helper()

	db, cleanup := SetupTestDB(t, testName)

	migrator := migrations.NewMigrator(db)
	for _, migration := range migrations.All() {
		migrator.Add(migration)
	}
	if err := migrator.Run(); err != nil {
		cleanup()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db, cleanup
}
