package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// Entry describes one stored key.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt string
}

// GetValue returns the value stored under key. The boolean is false when the
// key has never been written.
func (db *DB) GetValue(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// PutValue replaces the value stored under key.
func (db *DB) PutValue(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO kv_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (db *DB) DeleteValue(key string) error {
	if _, err := db.conn.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Entries lists every stored key with its value size, in key order.
func (db *DB) Entries() ([]Entry, error) {
	rows, err := db.conn.Query("SELECT key, length(value), COALESCE(updated_at, '') FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Size, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
