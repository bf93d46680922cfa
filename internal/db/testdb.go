package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens an in-memory SQLite database with the schema applied and
// closes it when the test finishes. The single-connection pool set by Open
// keeps the memory database alive for the whole test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	return database
}
