// Package sqlite implements the rowstore.Client contract on an embedded
// SQLite database.
//
// This backend plays the role the hosted store plays in production: the
// local server in internal/server exposes it over the same REST dialect the
// rest adapter speaks, and tests use it directly with ":memory:". The
// collections are fixed (snippets, folders, snippet_folders, users) with a
// typed schema per collection; a query naming an unknown collection or
// column is rejected rather than silently returning nothing.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without CGo and cross-compiles anywhere Go does.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Store wraps the connection pool and implements rowstore.Client.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; foreign keys are
	// off by default in SQLite and the join table relies on them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL,
			tags        TEXT NOT NULL DEFAULT '[]',
			is_public   INTEGER NOT NULL DEFAULT 0,
			is_pinned   INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_public ON snippets(is_public);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);

		CREATE TABLE IF NOT EXISTS folders (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id);

		-- Join rows: no uniqueness constraint (duplicate links are
		-- permitted), but referential integrity with cascade so deleting
		-- a folder or snippet cleans up its links server-side.
		CREATE TABLE IF NOT EXISTS snippet_folders (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			folder_id  TEXT NOT NULL REFERENCES folders(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_snippet_folders_folder ON snippet_folders(folder_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}
