// Package pkv is a persistent key-value store for application settings and
// small state. Values of any serializable type are stored under string keys
// in a per-user location, using a storage engine selected at build time:
//
//   - badger (default, or the "badger" build tag)
//   - leveldb ("leveldb" build tag)
//   - bolt ("bolt" build tag)
//   - sqlite ("sqlite" build tag)
//   - the browser's localStorage, when built for js/wasm
//
// Selecting more than one engine fails the build.
//
// Values are encoded with MessagePack on native platforms, and as text in the
// browser, where strings are stored raw and other values as JSON.
package pkv

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Store is a handle to an open store. It is safe for concurrent use. Only one
// Store may have a given location open at a time.
type Store struct {
	mu       sync.RWMutex
	b        *backend
	closed   bool
	location string
	logger   *slog.Logger
}

func newStore(b *backend, location string, cfg *config) *Store {
	return &Store{b: b, location: location, logger: cfg.logger}
}

// Backend returns the name of the storage engine compiled into this build.
func (s *Store) Backend() string {
	return Backend
}

// Location returns the path of the store on disk, or the storage namespace in
// the browser.
func (s *Store) Location() string {
	return s.location
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(key string, value any) error {
	if err := validateKey(key); err != nil {
		return &OpError{Op: "set", Key: key, Err: err}
	}
	data, err := valueCodec.Marshal(value)
	if err != nil {
		return &OpError{Op: "set", Key: key, Err: kindError(ErrSerialize, err)}
	}
	return s.put(key, data)
}

// SetString stores the string value under key. The stored bytes are the same
// as those written by Set(key, value).
func (s *Store) SetString(key, value string) error {
	if err := validateKey(key); err != nil {
		return &OpError{Op: "set", Key: key, Err: err}
	}
	data, err := valueCodec.MarshalString(value)
	if err != nil {
		return &OpError{Op: "set", Key: key, Err: kindError(ErrSerialize, err)}
	}
	return s.put(key, data)
}

func (s *Store) put(key string, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &OpError{Op: "set", Key: key, Err: ErrClosed}
	}
	if err := s.b.Set(key, data); err != nil {
		return &OpError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// GetInto decodes the value stored under key into the value pointed to by v.
// It returns an error wrapping ErrNotFound if the key doesn't exist, and
// ErrDeserialize if the stored value doesn't decode as v's type.
func (s *Store) GetInto(key string, v any) error {
	if err := validateKey(key); err != nil {
		return &OpError{Op: "get", Key: key, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &OpError{Op: "get", Key: key, Err: ErrClosed}
	}

	data, err := s.b.Get(key)
	if err != nil {
		return &OpError{Op: "get", Key: key, Err: err}
	}
	if err = valueCodec.Unmarshal(data, v); err != nil {
		return &OpError{Op: "get", Key: key, Err: kindError(ErrDeserialize, err)}
	}

	return nil
}

// Get returns the value stored under key decoded as T. On error the zero value
// of T is returned, never a partially decoded one.
func Get[T any](s *Store, key string) (T, error) {
	var v T
	if err := s.GetInto(key, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return &OpError{Op: "remove", Key: key, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &OpError{Op: "remove", Key: key, Err: ErrClosed}
	}
	if err := s.b.Delete(key); err != nil {
		return &OpError{Op: "remove", Key: key, Err: err}
	}

	return nil
}

// RemoveAndGet deletes key and returns its former value decoded as T. The
// boolean is false if the key didn't exist. If the value doesn't decode as T
// an error wrapping ErrDeserialize is returned and the entry is kept.
func RemoveAndGet[T any](s *Store, key string) (T, bool, error) {
	var zero T
	v, err := Get[T](s, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	} else if err != nil {
		return zero, false, err
	}

	if err = s.Remove(key); err != nil {
		return zero, false, err
	}

	return v, true, nil
}

// Clear deletes all keys.
func (s *Store) Clear() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &OpError{Op: "clear", Err: ErrClosed}
	}
	if err := s.b.Clear(); err != nil {
		return &OpError{Op: "clear", Err: err}
	}
	s.logger.Debug("cleared store", "location", s.location)

	return nil
}

// Keys returns all stored keys in ascending byte order.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &OpError{Op: "keys", Err: ErrClosed}
	}

	keys := []string{}
	err := s.b.ForEach(func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "keys", Err: err}
	}
	sort.Strings(keys)

	return keys, nil
}

// Flush forces buffered writes to durable storage.
func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &OpError{Op: "flush", Err: ErrClosed}
	}
	if err := s.b.Flush(); err != nil {
		return &OpError{Op: "flush", Err: err}
	}

	return nil
}

// Close flushes pending writes and releases the store. Other handles may open
// the location afterwards. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.b.Flush()
	closeErr := s.b.Close()
	s.logger.Debug("closed store", "location", s.location)

	if flushErr != nil {
		return &OpError{Op: "close", Err: flushErr}
	}
	if closeErr != nil {
		return &OpError{Op: "close", Err: closeErr}
	}

	return nil
}

func validateKey(key string) error {
	if key == "" && !emptyKeyAllowed {
		return fmt.Errorf("%w: empty keys are not supported by the %s backend", ErrInvalidKey, Backend)
	}
	if reservedKeyPrefix != "" && strings.HasPrefix(key, reservedKeyPrefix) {
		return fmt.Errorf("%w: prefix %q is reserved by the %s backend", ErrInvalidKey, reservedKeyPrefix, Backend)
	}
	return nil
}
