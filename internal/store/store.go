// Package store opens the macOS SQLite databases imsgvault reads (the
// Messages chat.db and AddressBook sources) strictly read-only.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Store wraps a read-only connection pool to one SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// OpenError reports that a database file could not be opened. On macOS this
// is almost always a missing Full Disk Access grant.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// isSQLiteError checks if err is a sqlite3.Error with a message containing substr.
// Handles both value (sqlite3.Error) and pointer (*sqlite3.Error) forms.
func isSQLiteError(err error, substr string) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return strings.Contains(sqliteErr.Error(), substr)
	}
	var sqliteErrPtr *sqlite3.Error
	if errors.As(err, &sqliteErrPtr) && sqliteErrPtr != nil {
		return strings.Contains(sqliteErrPtr.Error(), substr)
	}
	return false
}

// IsTableNotFound reports whether err indicates a missing table, which
// happens when a file is not the database we expected or predates a schema change.
func IsTableNotFound(err error) bool {
	if err == nil {
		return false
	}
	return isSQLiteError(err, "no such table") || strings.Contains(err.Error(), "no such table")
}

// readOnlyDSN builds a SQLite URI that opens path with mode=ro.
// '%', '?' and '#' are escaped because they are significant in URI filenames.
func readOnlyDSN(path string) string {
	r := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")
	return "file:" + r.Replace(path) + "?mode=ro"
}

// OpenReadOnly opens the SQLite database at path without write access and
// verifies that a connection can be established. A missing file is an error;
// it is never created.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// chunkSize keeps IN lists well under SQLite's host parameter limit.
const chunkSize = 500

// QueryInChunks executes a parameterized IN-query in chunks to stay within
// SQLite's parameter limit. queryTemplate must contain a single %s placeholder
// for the comma-separated "?" list. The prefix args are prepended before each
// chunk's args. Rows are passed to fn in the order the store returns them.
func QueryInChunks[T any](ctx context.Context, db *sql.DB, ids []T, prefixArgs []any, queryTemplate string, fn func(*sql.Rows) error) error {
	for i := 0; i < len(ids); i += chunkSize {
		end := min(i+chunkSize, len(ids))
		chunk := ids[i:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(prefixArgs)+len(chunk))
		args = append(args, prefixArgs...)
		for j, id := range chunk {
			placeholders[j] = "?"
			args = append(args, id)
		}

		query := fmt.Sprintf(queryTemplate, strings.Join(placeholders, ","))
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}

		for rows.Next() {
			if err := fn(rows); err != nil {
				rows.Close()
				return err
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}
