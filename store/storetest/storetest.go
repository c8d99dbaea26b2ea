// Package storetest provides a conformance suite run against every
// store.Store implementation.
package storetest

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/pkv/store"
)

// Opener opens a store at path. Opening the same path again after Close must
// return the persisted data.
type Opener func(path string) (store.Store, error)

// Features describes optional backend behavior the suite should check.
type Features struct {
	// ExclusiveLock is set if a second Open of the same path must fail with
	// store.ErrLocked while the first handle is open.
	ExclusiveLock bool
	// EmptyKey is set if the backend can store the empty key.
	EmptyKey bool
	// TextOnly is set if the backend only stores valid UTF-8, so binary
	// values are replaced with text.
	TextOnly bool
}

// Run runs the conformance suite. newPath must return a fresh, unused path
// on every call.
func Run(t *testing.T, open Opener, newPath func() string, feat Features) {
	t.Run("set_get", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		other := []byte{0x00, 0xff, 0x10}
		if feat.TextOnly {
			other = []byte("\x00 ünïcödé \x10")
		}
		require.NoError(t, s.Set("key", []byte("value")))
		require.NoError(t, s.Set("key2", other))

		got, err := s.Get("key")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)

		got, err = s.Get("key2")
		require.NoError(t, err)
		assert.Equal(t, other, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		require.NoError(t, s.Set("key", []byte("v1")))
		require.NoError(t, s.Set("key", []byte("v2")))

		got, err := s.Get("key")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("not_found", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		_, err := s.Get("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Set("other", []byte("x")))
		_, err = s.Get("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		require.NoError(t, s.Set("key", []byte("value")))
		require.NoError(t, s.Delete("key"))

		_, err := s.Get("key")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.Delete("key"), "deleting a missing key")
	})

	t.Run("clear", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		keys := []string{"a", "b", "c/d", "e"}
		for _, k := range keys {
			require.NoError(t, s.Set(k, []byte(k)))
		}
		require.NoError(t, s.Clear())

		for _, k := range keys {
			_, err := s.Get(k)
			assert.ErrorIs(t, err, store.ErrNotFound, k)
		}

		// The store stays usable after a clear.
		require.NoError(t, s.Set("a", []byte("again")))
		got, err := s.Get("a")
		require.NoError(t, err)
		assert.Equal(t, []byte("again"), got)
	})

	t.Run("for_each", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		want := map[string][]byte{}
		for i := 0; i < 50; i++ {
			k := fmt.Sprintf("key-%03d", 49-i)
			want[k] = []byte(fmt.Sprintf("value-%d", i))
			require.NoError(t, s.Set(k, want[k]))
		}

		got := map[string][]byte{}
		var order []string
		err := s.ForEach(func(key string, value []byte) error {
			got[key] = value
			order = append(order, key)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, sort.StringsAreSorted(order), "keys not in order: %v", order)
	})

	t.Run("for_each_stop", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		require.NoError(t, s.Set("a", []byte("1")))
		require.NoError(t, s.Set("b", []byte("2")))

		stop := errors.New("stop")
		calls := 0
		err := s.ForEach(func(string, []byte) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("reopen", func(t *testing.T) {
		path := newPath()
		s, err := open(path)
		require.NoError(t, err)
		require.NoError(t, s.Set("key", []byte("persisted")))
		require.NoError(t, s.Flush())
		require.NoError(t, s.Close())

		s = mustOpen(t, open, path)
		got, err := s.Get("key")
		require.NoError(t, err)
		assert.Equal(t, []byte("persisted"), got)
	})

	t.Run("exclusive_lock", func(t *testing.T) {
		if !feat.ExclusiveLock {
			t.Skip("backend does not lock its location")
		}
		path := newPath()
		s := mustOpen(t, open, path)
		require.NoError(t, s.Set("key", []byte("value")))

		s2, err := open(path)
		if err == nil {
			s2.Close()
		}
		require.ErrorIs(t, err, store.ErrLocked)

		// The first handle is unaffected.
		got, err := s.Get("key")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)
	})

	t.Run("empty_key", func(t *testing.T) {
		if !feat.EmptyKey {
			t.Skip("backend does not support the empty key")
		}
		s := mustOpen(t, open, newPath())
		require.NoError(t, s.Set("", []byte("empty")))
		got, err := s.Get("")
		require.NoError(t, err)
		assert.Equal(t, []byte("empty"), got)
	})

	t.Run("large_value", func(t *testing.T) {
		s := mustOpen(t, open, newPath())
		mod := 251
		if feat.TextOnly {
			mod = 128
		}
		val := make([]byte, 1<<20)
		for i := range val {
			val[i] = byte(i % mod)
		}
		require.NoError(t, s.Set("large", val))
		got, err := s.Get("large")
		require.NoError(t, err)
		assert.Equal(t, val, got)
	})
}

func mustOpen(t *testing.T, open Opener, path string) store.Store {
	t.Helper()
	s, err := open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
