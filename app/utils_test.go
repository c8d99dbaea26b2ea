package app

import (
	"bytes"
	"sync"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/pkv/app/context"
)

type testApp struct {
	*App
	dir            string
	stdout, stderr *bytes.Buffer
	env            *mockEnv
	exitCode       int
}

// newTestApp returns an application that keeps its store in a temporary
// directory, and doesn't read a config file unless WithConfigFile is passed.
func newTestApp(t *testing.T, options ...Option) *testApp {
	t.Helper()

	tapp := &testApp{
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env:    &mockEnv{env: map[string]string{}},
	}

	opts := []Option{
		WithFDs(&bytes.Buffer{}, tapp.stdout, tapp.stderr),
		WithFS(memoryfs.New()),
		WithLogger(false, false),
		WithEnv(tapp.env),
		WithConfigFile(""),
		WithExit(func(code int) { tapp.exitCode = code }),
	}
	opts = append(opts, options...)

	app, err := New(opts...)
	require.NoError(t, err)
	tapp.App = app

	return tapp
}

// Run runs the command with the store directory of the test app. The output
// of previous commands is discarded.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.App.Run(append([]string{"--dir", ta.dir}, args...))
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = &mockEnv{}

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}
