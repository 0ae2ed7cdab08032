// Package db opens the SQLite database backing the sqlite host and runs
// migrations.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog (
	owner     TEXT NOT NULL CHECK (owner IN ('local', 'node')),
	asset_id  TEXT NOT NULL,
	filetype  TEXT NOT NULL,
	filename  TEXT NOT NULL,
	thumb     TEXT NOT NULL,
	uploaded  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (owner, asset_id)
);

CREATE TABLE IF NOT EXISTS revisions (
	revision_id TEXT PRIMARY KEY,
	created_at  REAL NOT NULL,
	body        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revisions_created ON revisions(created_at);
`

// Open opens the DB at path, creates dir if needed, runs migrations.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %v, close failed: %w", err, closeErr)
		}
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("migrate failed: %v, close failed: %w", err, closeErr)
		}
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return conn, nil
}
