// Package sqlite persists tracker state in a local SQLite database using the
// pure Go driver, so the binary stays CGO-free.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO meta (key, value) VALUES ('snapshot_version', 0);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	token_hash TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	revoked    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id),
	amount             REAL NOT NULL,
	origin             TEXT NOT NULL,
	category           TEXT NOT NULL,
	account            TEXT NOT NULL,
	payment_method     TEXT NOT NULL,
	date               TEXT NOT NULL,
	type               TEXT NOT NULL,
	is_installment     INTEGER NOT NULL DEFAULT 0,
	installments_total INTEGER NOT NULL DEFAULT 0,
	is_shared          INTEGER NOT NULL DEFAULT 0,
	my_share_value     REAL,
	tags               TEXT NOT NULL DEFAULT '[]',
	created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);

CREATE TABLE IF NOT EXISTS account_settings (
	user_id     TEXT NOT NULL REFERENCES users(id),
	account_id  TEXT NOT NULL,
	closing_day INTEGER NOT NULL,
	due_day     INTEGER NOT NULL,
	PRIMARY KEY (user_id, account_id)
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	name    TEXT NOT NULL,
	value   REAL NOT NULL,
	due_day INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS budgets (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL REFERENCES users(id),
	category            TEXT NOT NULL,
	monthly_limit       REAL NOT NULL,
	alert_threshold_pct REAL NOT NULL,
	is_active           INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS goals (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id),
	name          TEXT NOT NULL,
	target_amount REAL NOT NULL,
	saved_amount  REAL NOT NULL,
	target_date   TEXT
);
`

// Open creates the database file if needed, applies the schema and returns a
// pooled connection. WAL mode keeps the scheduler's writes from blocking
// interactive reads.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

// OpenInMemory opens a private in-memory database with the schema applied.
// Used by tests.
func OpenInMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// In-memory databases vanish when their last connection closes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
