package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database and configures the connection pool and
// pragmas. The pool is pinned to a single connection: the store layer runs
// multi-statement transactions (sales, renumbering, cascade deletes) that
// need one writer, and an in-memory database only exists on the connection
// that created it.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	database.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"journal_mode=WAL",
		"busy_timeout=5000",
		"foreign_keys=ON",
		"synchronous=NORMAL",
	} {
		if _, err := database.Exec("PRAGMA " + pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("setting pragma %s: %w", pragma, err)
		}
	}

	return database, nil
}
