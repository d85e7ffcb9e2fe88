// Package database is the local SQLite key/value store backing the
// knowledge base.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// connPragmas are applied to every new database handle.
var connPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// DB is a SQLite-backed key/value store.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the store at dbPath and brings its schema up to date.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory for %s: %w", dbPath, err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening kv store %s: %w", dbPath, err)
	}
	// A single connection keeps read-modify-write cycles of one process in
	// order and the pragmas above in effect.
	conn.SetMaxOpenConns(1)

	for _, p := range connPragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("kv store %s: %s: %w", dbPath, p, err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kv store %s: %w", dbPath, err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
