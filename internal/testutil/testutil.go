package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"kitchen-assistant/internal/database"
)

// NewTestDatabase opens a migrated SQLite database in a temp directory.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db.SQL
}
