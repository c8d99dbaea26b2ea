// Package badger implements store.Store on top of Badger, an embedded
// LSM-tree key-value database.
//
// Writes are committed to the value log without an fsync (Badger's default
// SyncWrites=false); Flush and Close sync them to disk. Badger locks its
// directory on open, so a second handle fails with store.ErrLocked.
package badger

import (
	"errors"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/y"

	"go.hackfix.me/pkv/store"
)

// Store is a Badger backed store.
type Store struct {
	db *badger.DB
}

var _ store.Store = &Store{}

// Option configures the Badger database before it is opened.
type Option func(*badger.Options)

// WithEncryptionKey enables at-rest encryption. The key must be 16, 24 or 32
// bytes long, for AES-128, AES-192 or AES-256 respectively.
func WithEncryptionKey(key []byte) Option {
	return func(opts *badger.Options) {
		*opts = opts.WithEncryptionKey(key).
			// Badger requires an index cache when encryption is enabled.
			WithIndexCacheSize(16 << 20)
	}
}

// Open creates or opens a Badger database in the directory at path. The
// directory is created if it doesn't exist.
func Open(path string, options ...Option) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	for _, opt := range options {
		opt(&opts)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, mapErr(err)
	}

	return &Store{db: db}, nil
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	return mapErr(s.db.Close())
}

// Flush syncs the value log and the manifest to disk.
func (s *Store) Flush() error {
	return mapErr(s.db.Sync())
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, mapErr(err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, mapErr(err)
	}

	return val, nil
}

// Set stores value under key in its own transaction.
func (s *Store) Set(key string, value []byte) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Set([]byte(key), value); err != nil {
		return mapErr(err)
	}

	return mapErr(txn.Commit())
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Delete([]byte(key)); err != nil {
		return mapErr(err)
	}

	return mapErr(txn.Commit())
}

// Clear drops all data stored in the database.
func (s *Store) Clear() error {
	return mapErr(s.db.DropAll())
}

// ForEach iterates over all entries in key order.
func (s *Store) ForEach(fn func(key string, value []byte) error) error {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return mapErr(err)
		}
		if err := fn(string(item.KeyCopy(nil)), val); err != nil {
			return err
		}
	}

	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return store.ErrNotFound
	// Badger formats the flock error into its message, so it can't be
	// unwrapped.
	case strings.Contains(msg, "cannot acquire directory lock"),
		store.IsLockContention(err):
		return store.NewError(store.ErrLocked, err)
	case errors.Is(err, y.ErrChecksumMismatch),
		strings.Contains(msg, "checksum mismatch"),
		strings.Contains(msg, "corrupt"):
		return store.NewError(store.ErrCorrupt, err)
	case store.IsIO(err):
		return store.NewError(store.ErrIo, err)
	default:
		return store.NewError(store.ErrBackend, err)
	}
}
