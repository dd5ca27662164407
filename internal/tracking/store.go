// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tracking persists the mapping from content keys to remote file ids
// in a SQLite database. One row exists per key; writes are upserts.
package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// DefaultDBPath matches the database file name used by earlier deployments.
const DefaultDBPath = "attachments.db"

// Store manages the tracking database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the tracking database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &types.PersistenceError{Op: "creating database directory", Err: err}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &types.PersistenceError{Op: "opening database", Err: err}
	}
	// A single writer keeps upserts strictly ordered.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, &types.PersistenceError{Op: "creating schema", Err: err}
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tracked_items (
			key TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TEXT,
			updated_at TEXT,
			remote_file_id TEXT UNIQUE
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the record for key. The boolean is false when no record exists.
func (s *Store) Get(ctx context.Context, key string) (types.TrackedRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, title, created_at, updated_at, remote_file_id
		 FROM tracked_items WHERE key = ?`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.TrackedRecord{}, false, nil
	}
	if err != nil {
		return types.TrackedRecord{}, false, &types.PersistenceError{Op: "reading " + key, Err: err}
	}
	return rec, true, nil
}

// Upsert inserts rec or overwrites every column of the existing row.
func (s *Store) Upsert(ctx context.Context, rec types.TrackedRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_items (key, title, created_at, updated_at, remote_file_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			title=excluded.title, created_at=excluded.created_at,
			updated_at=excluded.updated_at, remote_file_id=excluded.remote_file_id`,
		rec.Key, rec.DisplayName,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		nullString(rec.RemoteFileID),
	)
	if err != nil {
		return &types.PersistenceError{Op: "upserting " + rec.Key, Err: err}
	}
	return nil
}

// Count returns the number of tracked records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM tracked_items`).Scan(&n); err != nil {
		return 0, &types.PersistenceError{Op: "counting records", Err: err}
	}
	return n, nil
}

// List returns records whose key starts with prefix, ordered by key. An
// empty prefix lists everything.
func (s *Store) List(ctx context.Context, prefix string) ([]types.TrackedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, title, created_at, updated_at, remote_file_id
		 FROM tracked_items WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix)
	if err != nil {
		return nil, &types.PersistenceError{Op: "listing records", Err: err}
	}
	defer rows.Close()

	var out []types.TrackedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &types.PersistenceError{Op: "scanning record", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.PersistenceError{Op: "listing records", Err: err}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.TrackedRecord, error) {
	var (
		rec              types.TrackedRecord
		created, updated sql.NullString
		remoteID         sql.NullString
	)
	if err := sc.Scan(&rec.Key, &rec.DisplayName, &created, &updated, &remoteID); err != nil {
		return types.TrackedRecord{}, err
	}
	rec.CreatedAt = parseTime(created.String)
	rec.UpdatedAt = parseTime(updated.String)
	rec.RemoteFileID = remoteID.String
	return rec, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(types.TimestampLayout)
}

// parseTime accepts the store layout, falling back to RFC 3339 with offsets.
func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(types.TimestampLayout, v); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
