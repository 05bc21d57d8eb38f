package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite is a local SQLite-backed Store. It persists values across process
// restarts and is safe for concurrent use; writes are serialized through a
// single connection so last-writer-wins holds without busy retries.
type SQLite struct {
	path string
	db   *sql.DB
}

// NewSQLite returns a store that will persist to the given file path. Open
// must be called before use.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Open creates the database file (and parent directory) if needed and
// initializes the schema.
func (s *SQLite) Open(ctx context.Context) error {
	p := filepath.Clean(strings.TrimSpace(s.path))
	if p == "" {
		return errors.New("missing db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS blobs (
	session TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   BLOB NOT NULL,
	PRIMARY KEY (session, key)
)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("init schema: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set stores (or overwrites) the value for the session/key pair.
func (s *SQLite) Set(ctx context.Context, session, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blobs (session, key, value) VALUES (?, ?, ?)
ON CONFLICT (session, key) DO UPDATE SET value = excluded.value`,
		session, key, value)
	return err
}

// Get returns the stored value or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, session, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE session = ? AND key = ?`,
		session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes the value or returns ErrNotFound.
func (s *SQLite) Delete(ctx context.Context, session, key string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE session = ? AND key = ?`, session, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Keys returns the keys stored for the session, sorted.
func (s *SQLite) Keys(ctx context.Context, session string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM blobs WHERE session = ? ORDER BY key`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear removes every value belonging to the session.
func (s *SQLite) Clear(ctx context.Context, session string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE session = ?`, session)
	return err
}
