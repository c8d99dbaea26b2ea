// Package sqlite implements store.Store as a single SQLite table.
//
// The database is opened in EXCLUSIVE locking mode with a single connection,
// and the lock is taken when the schema is migrated on open, so a second
// handle fails with store.ErrLocked. Each write is its own transaction and
// is synced on commit (synchronous=FULL).
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/pkv/store"
	"go.hackfix.me/pkv/store/sqlite/migrator"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite backed store.
type Store struct {
	*sql.DB
	ctx    context.Context
	logger *slog.Logger
}

var _ store.Store = &Store{}

// Open creates or opens the SQLite database file at path, and applies any
// pending schema migrations. The parent directory is created if it doesn't
// exist.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, mapErr(err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(0)"+
		"&_pragma=locking_mode(EXCLUSIVE)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, mapErr(err)
	}
	// The pragmas above are per connection, and the exclusive lock belongs to
	// the connection that acquired it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{DB: db, ctx: ctx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, mapErr(err)
	}

	return s, nil
}

// migrate runs the schema migrations inside an exclusive transaction. In
// EXCLUSIVE locking mode the lock is kept after the commit.
func (s *Store) migrate() error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	migrations, err := migrator.LoadMigrations(migrationsDir)
	if err != nil {
		return err
	}

	conn, err := s.Conn(s.ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(s.ctx, "BEGIN EXCLUSIVE"); err != nil {
		return err
	}
	err = migrator.RunMigrations(
		s.ctx, conn, migrations, migrator.MigrationUp, "all", s.logger)
	if err != nil {
		_, _ = conn.ExecContext(s.ctx, "ROLLBACK")
		return err
	}
	_, err = conn.ExecContext(s.ctx, "COMMIT")

	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return mapErr(s.DB.Close())
}

// Flush is a no-op: every committed write is already synced.
func (s *Store) Flush() error {
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	var val []byte
	err := s.QueryRowContext(s.ctx,
		`SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

// Set inserts or replaces the value stored under key.
func (s *Store) Set(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.ExecContext(s.ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return mapErr(err)
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	_, err := s.ExecContext(s.ctx, `DELETE FROM kv WHERE key = ?`, key)
	return mapErr(err)
}

// Clear deletes every row.
func (s *Store) Clear() error {
	_, err := s.ExecContext(s.ctx, `DELETE FROM kv`)
	return mapErr(err)
}

// ForEach iterates over all entries in key order. fn must not use the store,
// since the only connection is busy until the iteration ends.
func (s *Store) ForEach(fn func(key string, value []byte) error) error {
	rows, err := s.QueryContext(s.ctx, `SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			val []byte
		)
		if err := rows.Scan(&key, &val); err != nil {
			return mapErr(err)
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}

	return mapErr(rows.Err())
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "sqlite_locked"):
		return store.NewError(store.ErrLocked, err)
	case strings.Contains(msg, "not a database"),
		strings.Contains(msg, "malformed"),
		strings.Contains(msg, "sqlite_corrupt"),
		strings.Contains(msg, "sqlite_notadb"):
		return store.NewError(store.ErrCorrupt, err)
	case strings.Contains(msg, "disk i/o error"),
		strings.Contains(msg, "database or disk is full"),
		strings.Contains(msg, "unable to open database file"),
		strings.Contains(msg, "readonly database"),
		store.IsIO(err):
		return store.NewError(store.ErrIo, err)
	default:
		return store.NewError(store.ErrBackend, err)
	}
}
