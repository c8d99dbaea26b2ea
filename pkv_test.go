//go:build !js

package pkv

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Theme   string            `json:"theme"`
	Volume  int               `json:"volume"`
	Recent  []string          `json:"recent"`
	Enabled map[string]bool   `json:"enabled"`
	Window  *window           `json:"window"`
	Extra   map[string]string `json:"extra,omitempty"`
}

type window struct {
	Width  uint16 `json:"width"`
	Height uint16 `json:"height"`
}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenDir(dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	want := settings{
		Theme:   "dark",
		Volume:  -3,
		Recent:  []string{"a.txt", "b.txt"},
		Enabled: map[string]bool{"sync": true, "telemetry": false},
		Window:  &window{Width: 1280, Height: 720},
	}
	require.NoError(t, s.Set("settings", want))
	got, err := Get[settings](s, "settings")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Set("count", uint64(1<<40)))
	count, err := Get[uint64](s, "count")
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), count)

	require.NoError(t, s.Set("ratio", 0.25))
	ratio, err := Get[float64](s, "ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.25, ratio)

	require.NoError(t, s.Set("flag", true))
	flag, err := Get[bool](s, "flag")
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, s.Set("blob", []byte{0, 1, 2, 255}))
	blob, err := Get[[]byte](s, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, blob)

	var into settings
	require.NoError(t, s.GetInto("settings", &into))
	assert.Equal(t, want, into)
}

func TestStoreSetString(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	for _, str := range []string{"", "hello", "line\nbreak\ttab\x00nul\x1b[0m", "héllo wörld ✓"} {
		require.NoError(t, s.SetString("str", str))
		got, err := Get[string](s, "str")
		require.NoError(t, err)
		assert.Equal(t, str, got)

		// Both write paths store the same bytes.
		require.NoError(t, s.Set("generic", str))
		fast, err := s.b.Get("str")
		require.NoError(t, err)
		generic, err := s.b.Get("generic")
		require.NoError(t, err)
		assert.Equal(t, generic, fast)
	}
}

func TestStoreNotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	_, err := Get[string](s, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "get", opErr.Op)
	assert.Equal(t, "missing", opErr.Key)
	assert.Equal(t, `pkv: get "missing": key not found`, err.Error())
}

func TestStoreTypeMismatch(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("num", 42))
	str, err := Get[string](s, "num")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Equal(t, "", str)

	require.NoError(t, s.SetString("str", "dark"))
	set, err := Get[settings](s, "str")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Equal(t, settings{}, set)

	require.NoError(t, s.Set("win", window{Width: 1, Height: 2}))
	n, err := Get[int](s, "win")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Equal(t, 0, n)

	// Unknown fields are rejected rather than silently dropped.
	require.NoError(t, s.Set("settings", settings{Theme: "light"}))
	_, err = Get[window](s, "settings")
	require.ErrorIs(t, err, ErrDeserialize)
}

func TestStoreOverflow(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("volume", 300))
	vol, err := Get[uint8](s, "volume")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Equal(t, uint8(0), vol)

	require.NoError(t, s.Set("offset", -1))
	_, err = Get[uint32](s, "offset")
	require.ErrorIs(t, err, ErrDeserialize)

	require.NoError(t, s.Set("window", map[string]int{"width": 70000, "height": 1}))
	win, err := Get[window](s, "window")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Equal(t, window{}, win)

	// Narrower types work when the value fits.
	require.NoError(t, s.Set("small", 200))
	small, err := Get[uint8](s, "small")
	require.NoError(t, err)
	assert.Equal(t, uint8(200), small)
}

func TestStoreSerializeError(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	err := s.Set("fn", func() {})
	require.ErrorIs(t, err, ErrSerialize)

	_, err = Get[string](s, "fn")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "v2"))
	got, err := Get[string](s, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	// The type of a key may change.
	require.NoError(t, s.Set("k", 7))
	n, err := Get[int](s, "k")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestStorePersistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := OpenDir(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("window", window{Width: 800, Height: 600}))
	require.NoError(t, s.SetString("name", "pkv"))
	require.NoError(t, s.Close())

	s, err = OpenDir(dir)
	require.NoError(t, err)
	defer s.Close()

	win, err := Get[window](s, "window")
	require.NoError(t, err)
	assert.Equal(t, window{Width: 800, Height: 600}, win)

	name, err := Get[string](s, "name")
	require.NoError(t, err)
	assert.Equal(t, "pkv", name)
}

func TestStoreExclusiveLock(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	require.NoError(t, s.Set("k", "v"))

	_, err := OpenDir(dir)
	require.ErrorIs(t, err, ErrLocked)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "open", opErr.Op)
	assert.Equal(t, filepath.Join(dir, backendFile), opErr.Path)

	// The first handle is unaffected.
	got, err := Get[string](s, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, s.Close())
	s2, err := OpenDir(dir)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	keys := []string{"a", "b", "c/d"}
	for i, k := range keys {
		require.NoError(t, s.Set(k, i))
	}
	require.NoError(t, s.Clear())

	for _, k := range keys {
		_, err := Get[int](s, k)
		assert.ErrorIs(t, err, ErrNotFound, k)
	}

	got, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, got)

	// The store stays usable.
	require.NoError(t, s.Set("a", 1))
	n, err := Get[int](s, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Remove("k"))
	_, err := Get[string](s, "k")
	require.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Remove("k"))
	assert.NoError(t, s.Remove("never-set"))
}

func TestStoreRemoveAndGet(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("win", window{Width: 3, Height: 4}))
	win, ok, err := RemoveAndGet[window](s, "win")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, window{Width: 3, Height: 4}, win)

	_, err = Get[window](s, "win")
	require.ErrorIs(t, err, ErrNotFound)

	win, ok, err = RemoveAndGet[window](s, "win")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, window{}, win)

	// A value that doesn't decode is kept.
	require.NoError(t, s.SetString("str", "text"))
	_, ok, err = RemoveAndGet[window](s, "str")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.False(t, ok)
	str, err := Get[string](s, "str")
	require.NoError(t, err)
	assert.Equal(t, "text", str)
}

func TestStoreKeys(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	for _, k := range []string{"zeta", "alpha", "Beta", "alpha/1"} {
		require.NoError(t, s.Set(k, k))
	}

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "alpha", "alpha/1", "zeta"}, keys)
}

func TestStoreEmptyKey(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	err := s.Set("", "v")
	if !emptyKeyAllowed {
		require.ErrorIs(t, err, ErrInvalidKey)
		_, err = Get[string](s, "")
		require.ErrorIs(t, err, ErrInvalidKey)
		require.ErrorIs(t, s.Remove(""), ErrInvalidKey)
		return
	}

	require.NoError(t, err)
	got, err := Get[string](s, "")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	require.NoError(t, s.Remove(""))
}

func TestStoreReservedKey(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	if reservedKeyPrefix == "" {
		require.NoError(t, s.Set("!badger!head", "v"))
		return
	}

	key := reservedKeyPrefix + "head"
	err := s.Set(key, "v")
	require.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, fmt.Sprintf(`pkv: set %q: invalid key: prefix %q is reserved by the %s backend`,
		key, reservedKeyPrefix, Backend), err.Error())
	require.ErrorIs(t, s.SetString(key, "v"), ErrInvalidKey)
	_, err = Get[string](s, key)
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, s.Remove(key), ErrInvalidKey)

	// The prefix is only reserved at the start of a key.
	require.NoError(t, s.Set("x"+key, "v"))
	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"x" + key}, keys)
}

func TestStoreClosed(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err := Get[string](s, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("k", "v"), ErrClosed)
	assert.ErrorIs(t, s.SetString("k", "v"), ErrClosed)
	assert.ErrorIs(t, s.Remove("k"), ErrClosed)
	assert.ErrorIs(t, s.Clear(), ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
	_, err = s.Keys()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStoreConcurrent(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("worker/%d", i)
			for j := 0; j < 50; j++ {
				assert.NoError(t, s.Set(key, j))
				n, err := Get[int](s, key)
				assert.NoError(t, err)
				assert.Equal(t, j, n)
			}
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 8)
}

func TestStoreBackend(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	assert.Equal(t, Backend, s.Backend())
	assert.Equal(t, filepath.Join(dir, backendFile), s.Location())
}

func TestOpenEncryption(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{7}, 32)
	dir := t.TempDir()
	s, err := OpenDir(dir, WithEncryptionKey(key))
	if Backend != "badger" {
		require.ErrorIs(t, err, ErrBackend)
		return
	}
	require.NoError(t, err)
	require.NoError(t, s.Set("secret", "value"))
	require.NoError(t, s.Close())

	s, err = OpenDir(dir, WithEncryptionKey(key))
	require.NoError(t, err)
	defer s.Close()
	got, err := Get[string](s, "secret")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestOpenWithFS(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	dir := filepath.Join(t.TempDir(), "app", "data")
	s, err := OpenDir(dir, WithFS(fs))
	require.NoError(t, err)
	defer s.Close()

	fi, err := fs.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestOpenLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, _ := newTestStore(t, WithLogger(logger))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Close())

	out := buf.String()
	assert.Contains(t, out, "opened store")
	assert.Contains(t, out, "backend="+Backend)
	assert.Contains(t, out, "cleared store")
	assert.Contains(t, out, "closed store")
}

func TestOpen(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("data directory layout is checked on Linux only")
	}

	dataHome := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()

	s, err := Open("Example", "My App")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "myapp", backendFile), s.Location())
	require.NoError(t, s.Close())

	s, err = OpenWithQualifier("com", "Example", "Other")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "other", backendFile), s.Location())
	require.NoError(t, s.Close())

	_, err = Open("Example", "")
	require.ErrorIs(t, err, ErrLocation)
}
