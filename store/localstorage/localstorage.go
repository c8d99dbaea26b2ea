//go:build js && wasm

// Package localstorage implements store.Store on top of the browser's
// synchronous window.localStorage API. Every key is prefixed with the store
// namespace, so several stores can share the same origin.
//
// localStorage only holds strings, so values must be valid UTF-8 text.
package localstorage

import (
	"errors"
	"sort"
	"strings"
	"syscall/js"

	"go.hackfix.me/pkv/store"
)

// Store is a localStorage backed store.
type Store struct {
	storage js.Value
	prefix  string
}

var _ store.Store = &Store{}

// Open returns a store whose keys live under namespace in localStorage.
func Open(namespace string) (s *Store, err error) {
	defer recoverJSError(&err)

	storage := js.Global().Get("localStorage")
	if storage.IsUndefined() || storage.IsNull() {
		return nil, store.NewError(store.ErrBackend,
			errors.New("localStorage is not available"))
	}

	return &Store{storage: storage, prefix: namespace + "/"}, nil
}

// Close is a no-op, localStorage needs no release.
func (s *Store) Close() error {
	return nil
}

// Flush is a no-op, localStorage writes are synchronous.
func (s *Store) Flush() error {
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (val []byte, err error) {
	defer recoverJSError(&err)

	item := s.storage.Call("getItem", s.prefix+key)
	if item.IsNull() {
		return nil, store.ErrNotFound
	}
	return []byte(item.String()), nil
}

// Set stores value under key.
func (s *Store) Set(key string, value []byte) (err error) {
	defer recoverJSError(&err)

	s.storage.Call("setItem", s.prefix+key, string(value))
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) (err error) {
	defer recoverJSError(&err)

	s.storage.Call("removeItem", s.prefix+key)
	return nil
}

// Clear removes every key in the store namespace. Keys of other namespaces
// are left untouched.
func (s *Store) Clear() (err error) {
	defer recoverJSError(&err)

	for _, key := range s.keys() {
		s.storage.Call("removeItem", s.prefix+key)
	}
	return nil
}

// ForEach iterates over all entries of the namespace in key order.
func (s *Store) ForEach(fn func(key string, value []byte) error) (err error) {
	defer recoverJSError(&err)

	for _, key := range s.keys() {
		item := s.storage.Call("getItem", s.prefix+key)
		if item.IsNull() {
			continue
		}
		if err := fn(key, []byte(item.String())); err != nil {
			return err
		}
	}
	return nil
}

// keys returns the sorted keys of the namespace, without the prefix.
func (s *Store) keys() []string {
	n := s.storage.Get("length").Int()
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := s.storage.Call("key", i)
		if k.IsNull() {
			continue
		}
		if key, ok := strings.CutPrefix(k.String(), s.prefix); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// recoverJSError converts a JavaScript exception thrown by the storage API
// into a store error.
func recoverJSError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	jsErr, ok := r.(js.Error)
	if !ok {
		panic(r)
	}
	*err = mapErr(jsErr)
}

func mapErr(err js.Error) error {
	name := err.Value.Get("name")
	if name.Type() == js.TypeString {
		switch name.String() {
		// Full quota and access denied by the browser's privacy settings.
		case "QuotaExceededError", "NS_ERROR_DOM_QUOTA_REACHED", "SecurityError":
			return store.NewError(store.ErrIo, err)
		}
	}
	return store.NewError(store.ErrBackend, err)
}
