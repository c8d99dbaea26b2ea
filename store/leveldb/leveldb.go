// Package leveldb implements store.Store on top of goleveldb, a pure Go port
// of the LevelDB LSM-tree database.
//
// Writes go to the journal without an fsync (goleveldb's default); the journal
// is synced on Close. The database directory is locked while open.
package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"go.hackfix.me/pkv/store"
)

// Store is a LevelDB backed store.
type Store struct {
	db *leveldb.DB
}

var _ store.Store = &Store{}

// Open creates or opens a LevelDB database in the directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		// Corruption is reported instead of silently dropping damaged tables.
		Strict: opt.DefaultStrict | opt.StrictManifest,
	})
	if err != nil {
		return nil, mapErr(err)
	}

	return &Store{db: db}, nil
}

// Close closes the database, syncing the journal.
func (s *Store) Close() error {
	return mapErr(s.db.Close())
}

// Flush is a no-op: goleveldb has no explicit sync, the journal is synced on
// Close.
func (s *Store) Flush() error {
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(key), nil)
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

// Set stores value under key.
func (s *Store) Set(key string, value []byte) error {
	return mapErr(s.db.Put([]byte(key), value, nil))
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return mapErr(s.db.Delete([]byte(key), nil))
}

// Clear deletes every key in a single batch.
func (s *Store) Clear() error {
	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(nil, nil)
	for iter.Next() {
		batch.Delete(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return mapErr(err)
	}

	return mapErr(s.db.Write(batch, nil))
}

// ForEach iterates over all entries in key order.
func (s *Store) ForEach(fn func(key string, value []byte) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		if err := fn(string(iter.Key()), value); err != nil {
			return err
		}
	}

	return mapErr(iter.Error())
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return store.ErrNotFound
	case store.IsLockContention(err):
		return store.NewError(store.ErrLocked, err)
	case lerrors.IsCorrupted(err):
		return store.NewError(store.ErrCorrupt, err)
	case store.IsIO(err):
		return store.NewError(store.ErrIo, err)
	default:
		return store.NewError(store.ErrBackend, err)
	}
}
