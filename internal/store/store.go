// Package store provides the sqlite-backed per-package info cache. It keeps
// the plain-text `brew info` blob per package id so unchanged packages are
// never re-queried; an entry is implicitly invalid once the package's
// version moves on.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS package_info (
    id         TEXT PRIMARY KEY,
    version    TEXT NOT NULL,
    info       TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
`

// Store is the sqlite info cache.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the info cache at dbPath. Use ":memory:" for
// tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open info cache: %w", err)
	}

	// SQLite only allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create info cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetInfo returns the cached info blob for a package id, but only when it
// was captured at the given version; a version mismatch is a cache miss.
func (s *Store) GetInfo(id, version string) (string, bool, error) {
	var info string
	err := s.db.QueryRow(
		`SELECT info FROM package_info WHERE id = ? AND version = ?`,
		id, version,
	).Scan(&info)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read info cache for %s: %w", id, err)
	}
	return info, true, nil
}

// PutInfo stores the info blob for a package id at a version, replacing any
// older entry.
func (s *Store) PutInfo(id, version, info string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO package_info (id, version, info, fetched_at) VALUES (?, ?, ?, ?)`,
		id, version, info, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write info cache for %s: %w", id, err)
	}
	return nil
}

// Prune drops entries whose package id is no longer installed or whose
// captured version differs from the currently installed one.
func (s *Store) Prune(installed map[string]string) error {
	rows, err := s.db.Query(`SELECT id, version FROM package_info`)
	if err != nil {
		return fmt.Errorf("failed to list info cache: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id, version string
		if err := rows.Scan(&id, &version); err != nil {
			return fmt.Errorf("failed to scan info cache row: %w", err)
		}
		current, ok := installed[id]
		if !ok || current != version {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate info cache: %w", err)
	}

	for _, id := range stale {
		if _, err := s.db.Exec(`DELETE FROM package_info WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to prune info cache entry %s: %w", id, err)
		}
	}
	return nil
}
