// Package bolt implements store.Store on top of bbolt, an embedded
// copy-on-write B+tree database. Every write is its own transaction and is
// fsynced on commit.
package bolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"go.hackfix.me/pkv/store"
)

// All entries live in a single bucket.
var bucket = []byte("pkv")

// LockTimeout is how long Open waits for the file lock held by another
// handle before failing with store.ErrLocked.
const LockTimeout = 100 * time.Millisecond

// Store is a bbolt backed store.
type Store struct {
	db *bolt.DB
}

var _ store.Store = &Store{}

// Open creates or opens a bbolt database file at path. The parent directory
// is created if it doesn't exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, mapErr(err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: LockTimeout})
	if err != nil {
		return nil, mapErr(err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, mapErr(err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return mapErr(s.db.Close())
}

// Flush fsyncs the database file. Committed transactions are already synced,
// so this only matters if the database was opened with NoSync.
func (s *Store) Flush() error {
	return mapErr(s.db.Sync())
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return store.ErrNotFound
		}
		val = make([]byte, len(v))
		copy(val, v)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

// Set stores value under key.
func (s *Store) Set(key string, value []byte) error {
	return mapErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	}))
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return mapErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	}))
}

// Clear drops and recreates the bucket in one transaction.
func (s *Store) Clear() error {
	return mapErr(s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	}))
}

// ForEach iterates over all entries in key order.
func (s *Store) ForEach(fn func(key string, value []byte) error) error {
	var cbErr error
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			val := make([]byte, len(v))
			copy(val, v)
			if err := fn(string(k), val); err != nil {
				cbErr = err
				return err
			}
			return nil
		})
	})
	if cbErr != nil {
		return cbErr
	}
	return mapErr(err)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return store.ErrNotFound
	case errors.Is(err, berrors.ErrTimeout), store.IsLockContention(err):
		return store.NewError(store.ErrLocked, err)
	case errors.Is(err, berrors.ErrInvalid),
		errors.Is(err, berrors.ErrChecksum),
		errors.Is(err, berrors.ErrVersionMismatch):
		return store.NewError(store.ErrCorrupt, err)
	case errors.Is(err, berrors.ErrKeyRequired),
		errors.Is(err, berrors.ErrKeyTooLarge),
		errors.Is(err, berrors.ErrValueTooLarge):
		return store.NewError(store.ErrBackend, fmt.Errorf("rejected write: %w", err))
	case store.IsIO(err):
		return store.NewError(store.ErrIo, err)
	default:
		return store.NewError(store.ErrBackend, err)
	}
}
