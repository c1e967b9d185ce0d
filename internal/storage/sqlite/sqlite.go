// Package sqlite implements storage.Store on a replica's papers.db file
// using the ncruces/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is a sqlite-backed replica store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the store at dbPath and ensures the
// schema exists. Foreign keys are enforced on every connection; writes take
// the database lock immediately so concurrent steps fail fast instead of
// deadlocking on upgrade.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn inside a single transaction. The transaction starts in
// immediate mode (set on the connection string), commits on nil return, and
// rolls back on error or panic.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// nullStr maps the empty string to NULL so that propagated rows only carry
// the fields the source actually had.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullInt maps zero to NULL; year 0 means "unknown" throughout.
func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
