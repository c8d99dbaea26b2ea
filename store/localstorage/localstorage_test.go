//go:build js && wasm

package localstorage

import (
	"fmt"
	"syscall/js"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/pkv/store"
	"go.hackfix.me/pkv/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.InstallFakeLocalStorage(t)

	n := 0
	newPath := func() string {
		n++
		return fmt.Sprintf("ns-%d", n)
	}
	open := func(namespace string) (store.Store, error) {
		return Open(namespace)
	}

	storetest.Run(t, open, newPath, storetest.Features{EmptyKey: true, TextOnly: true})
}

func TestNamespaces(t *testing.T) {
	fake := storetest.InstallFakeLocalStorage(t)
	fake.SetItem("unrelated", "kept")

	app, err := Open("com.example.app")
	require.NoError(t, err)
	other, err := Open("com.example.other")
	require.NoError(t, err)

	require.NoError(t, app.Set("theme", []byte("dark")))
	require.NoError(t, other.Set("theme", []byte("light")))

	raw, ok := fake.Item("com.example.app/theme")
	require.True(t, ok)
	assert.Equal(t, "dark", raw)

	var keys []string
	err = app.ForEach(func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	require.NoError(t, app.Clear())
	_, err = app.Get("theme")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := other.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, []byte("light"), got)

	raw, ok = fake.Item("unrelated")
	require.True(t, ok)
	assert.Equal(t, "kept", raw)
	assert.Equal(t, 2, fake.Len())
}

func TestQuotaExceeded(t *testing.T) {
	fake := storetest.InstallFakeLocalStorage(t)

	s, err := Open("quota")
	require.NoError(t, err)
	require.NoError(t, s.Set("small", []byte("ok")))

	fake.SetQuota(64)
	err = s.Set("big", make([]byte, 128))
	assert.ErrorIs(t, err, store.ErrIo)
	assert.EqualError(t, err, "i/o failure: JavaScript error: the quota has been exceeded")

	// Earlier data is intact.
	got, err := s.Get("small")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
	_, err = s.Get("big")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestErrorMapping(t *testing.T) {
	testCases := []struct {
		name   string
		expErr error
	}{
		{"SecurityError", store.ErrIo},
		{"NS_ERROR_DOM_QUOTA_REACHED", store.ErrIo},
		{"TypeError", store.ErrBackend},
		{"InvalidStateError", store.ErrBackend},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := storetest.InstallFakeLocalStorage(t)
			s, err := Open("errors")
			require.NoError(t, err)

			fake.FailWith(tc.name)
			_, err = s.Get("key")
			assert.ErrorIs(t, err, tc.expErr)
			assert.ErrorIs(t, s.Set("key", []byte("v")), tc.expErr)
			assert.ErrorIs(t, s.Delete("key"), tc.expErr)
			assert.ErrorIs(t, s.Clear(), tc.expErr)

			fake.FailWith("")
			require.NoError(t, s.Set("key", []byte("v")))
		})
	}
}

func TestUnavailable(t *testing.T) {
	storetest.InstallFakeLocalStorage(t)
	js.Global().Set("localStorage", js.Null())

	_, err := Open("none")
	assert.ErrorIs(t, err, store.ErrBackend)
	assert.Contains(t, err.Error(), "localStorage is not available")
}
