// Package journal records handle operations in SQLite.
//
// The journal is an audit trail: it is written after every successful
// mutation and can be queried for recent operations and for the last
// created handle. It is never replayed into the record store.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Operation names
const (
	OpCreate         = "create"
	OpUpdate         = "update"
	OpDelete         = "delete"
	OpDeleteValues   = "delete_values"
	OpRegisterPrefix = "register_prefix"
	OpSeed           = "seed"
)

// Entry is one journal row
type Entry struct {
	ID      int64     `json:"id"`
	At      time.Time `json:"at"`
	Op      string    `json:"op"`
	Handle  string    `json:"handle"`
	Indices []string  `json:"indices,omitempty"`
	Values  int       `json:"values"`
}

// Journal is a SQLite backed operation log
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path. ":memory:" gives a
// private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate(path string) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := j.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		op TEXT NOT NULL,
		handle TEXT NOT NULL,
		indices JSON,
		value_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_operations_op ON operations(op, id);
	CREATE INDEX IF NOT EXISTS idx_operations_handle ON operations(handle);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends an entry. A zero At is set to the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	var indices sql.NullString
	if len(e.Indices) > 0 {
		b, err := json.Marshal(e.Indices)
		if err != nil {
			return fmt.Errorf("failed to marshal indices: %w", err)
		}
		indices = sql.NullString{String: string(b), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (at, op, handle, indices, value_count)
		VALUES (?, ?, ?, ?, ?)
	`, e.At, e.Op, e.Handle, indices, e.Values)
	if err != nil {
		return fmt.Errorf("failed to record %s %s: %w", e.Op, e.Handle, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Entries can be narrowed
// to one handle.
func (j *Journal) Recent(ctx context.Context, handle string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, at, op, handle, indices, value_count FROM operations`
	args := []any{}
	if handle != "" {
		query += ` WHERE handle = ?`
		args = append(args, handle)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e       Entry
			indices sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.At, &e.Op, &e.Handle, &indices, &e.Values); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if indices.Valid && indices.String != "" {
			if err := json.Unmarshal([]byte(indices.String), &e.Indices); err != nil {
				return nil, fmt.Errorf("failed to unmarshal indices: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastHandle returns the most recently created handle, or "" when none.
func (j *Journal) LastHandle(ctx context.Context) (string, error) {
	var handle string
	err := j.db.QueryRowContext(ctx, `
		SELECT handle FROM operations WHERE op = ? ORDER BY id DESC LIMIT 1
	`, OpCreate).Scan(&handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last handle: %w", err)
	}
	return handle, nil
}

// Close releases the database
func (j *Journal) Close() error {
	return j.db.Close()
}
