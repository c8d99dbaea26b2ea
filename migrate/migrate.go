//go:build !js

// Package migrate copies the entries of a store kept by one storage engine
// into a store kept by another. All native engines share the same value
// encoding, so entries are copied byte for byte.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.hackfix.me/pkv/store"
	"go.hackfix.me/pkv/store/badger"
	"go.hackfix.me/pkv/store/bolt"
	"go.hackfix.me/pkv/store/leveldb"
	"go.hackfix.me/pkv/store/sqlite"
)

// Kinds are the names of the storage engines that can be migrated.
var Kinds = []string{"badger", "leveldb", "bolt", "sqlite"}

// Path returns the path of the store of the given kind kept in dir. It's the
// same path the store uses when opened with the engine compiled in.
func Path(kind, dir string) string {
	return filepath.Join(dir, "pkv."+kind)
}

// Open opens the store of the given kind kept in dir.
func Open(ctx context.Context, kind, dir string, logger *slog.Logger) (store.Store, error) {
	path := Path(kind, dir)
	switch kind {
	case "badger":
		s, err := badger.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "leveldb":
		s, err := leveldb.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := bolt.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, path, sqlite.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown store kind '%s'", kind)
}

// Copy writes every entry of src to dst, and flushes dst. Existing entries
// in dst with the same keys are overwritten. It returns the number of copied
// entries.
func Copy(dst, src store.Store) (int, error) {
	var n int
	err := src.ForEach(func(key string, value []byte) error {
		if err := dst.Set(key, value); err != nil {
			return fmt.Errorf("failed writing key '%s': %w", key, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	if err = dst.Flush(); err != nil {
		return n, fmt.Errorf("failed flushing destination store: %w", err)
	}

	return n, nil
}

// Options configures a migration.
type Options struct {
	FromKind, FromDir string
	ToKind, ToDir     string
	// Clear removes all entries from the destination before copying.
	Clear  bool
	Logger *slog.Logger
}

// Run opens the source and destination stores, copies all entries and closes
// both stores. It returns the number of copied entries.
func Run(ctx context.Context, opts Options) (n int, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.FromKind == opts.ToKind &&
		filepath.Clean(opts.FromDir) == filepath.Clean(opts.ToDir) {
		return 0, errors.New("source and destination are the same store")
	}

	src, err := Open(ctx, opts.FromKind, opts.FromDir, logger)
	if err != nil {
		return 0, fmt.Errorf("failed opening source store: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed closing source store: %w", cerr)
		}
	}()

	dst, err := Open(ctx, opts.ToKind, opts.ToDir, logger)
	if err != nil {
		return 0, fmt.Errorf("failed opening destination store: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed closing destination store: %w", cerr)
		}
	}()

	if opts.Clear {
		if err = dst.Clear(); err != nil {
			return 0, fmt.Errorf("failed clearing destination store: %w", err)
		}
		logger.Debug("cleared destination store", "path", Path(opts.ToKind, opts.ToDir))
	}

	n, err = Copy(dst, src)
	if err != nil {
		return n, err
	}
	logger.Debug("migrated store",
		"from", Path(opts.FromKind, opts.FromDir),
		"to", Path(opts.ToKind, opts.ToDir), "entries", n)

	return n, nil
}
