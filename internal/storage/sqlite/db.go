// Package sqlite persists parse summaries in a local SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNewerSchema is returned when the history file was written by a newer
// release with an incompatible layout.
var ErrNewerSchema = errors.New("history database has a newer schema")

// DB is the parse history database shared by watch sessions and the
// history command.
type DB struct {
	conn *sql.DB
}

// Open opens the history database at path, creating it and its parent
// directory on first use.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	// WAL keeps a concurrent `pageview history` from blocking a running watch.
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// A session writes one row per reparse; a single connection serializes them.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare history database %s: %w", path, err)
	}
	return db, nil
}

// Close releases the connection. It is safe to call on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
