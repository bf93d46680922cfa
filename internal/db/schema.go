package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT NOT NULL,
    phone         TEXT,
    role          TEXT NOT NULL DEFAULT 'default' CHECK (role IN ('default', 'employee', 'manager', 'admin')),
    expenses      REAL NOT NULL DEFAULT 0 CHECK (expenses >= 0),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS grants (
    id                 INTEGER PRIMARY KEY,
    manager_id         INTEGER NOT NULL REFERENCES users(id),
    employee_id        INTEGER NOT NULL REFERENCES users(id),
    can_view_inventory INTEGER NOT NULL DEFAULT 1,
    can_edit_inventory INTEGER NOT NULL DEFAULT 0,
    can_see_finances   INTEGER NOT NULL DEFAULT 0,
    can_add_items      INTEGER NOT NULL DEFAULT 0,
    can_remove_items   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_grants_employee ON grants(employee_id);
CREATE INDEX IF NOT EXISTS idx_grants_manager ON grants(manager_id);

CREATE TABLE IF NOT EXISTS invitations (
    id         INTEGER PRIMARY KEY,
    email      TEXT NOT NULL,
    manager_id INTEGER NOT NULL REFERENCES users(id),
    token      TEXT NOT NULL UNIQUE,
    accepted   INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    item_number INTEGER NOT NULL,
    name        TEXT NOT NULL,
    quantity    INTEGER NOT NULL CHECK (quantity >= 0),
    price       REAL NOT NULL CHECK (price >= 0),
    description TEXT,
    category    TEXT,
    added_date  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (user_id, item_number)
);

CREATE TABLE IF NOT EXISTS sold_items (
    id                   INTEGER PRIMARY KEY,
    user_id              INTEGER NOT NULL REFERENCES users(id),
    original_item_number INTEGER,
    name                 TEXT NOT NULL,
    quantity             INTEGER NOT NULL,
    price                REAL NOT NULL,
    description          TEXT,
    category             TEXT,
    added_date           DATETIME,
    quantity_sold        INTEGER NOT NULL,
    sale_price           REAL NOT NULL,
    sale_date            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sold_items_user_date ON sold_items(user_id, sale_date);

CREATE TABLE IF NOT EXISTS exports (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    filename    TEXT NOT NULL,
    start_date  DATETIME NOT NULL,
    end_date    DATETIME NOT NULL,
    export_type TEXT NOT NULL DEFAULT 'finances',
    file_size   INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS password_reset_tokens (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    token      TEXT NOT NULL UNIQUE,
    expires_at DATETIME NOT NULL,
    used       INTEGER NOT NULL DEFAULT 0
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
