//go:build !js

package pkv

import (
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/pkv/codec"
	"go.hackfix.me/pkv/location"
)

var valueCodec codec.MessagePack

type nativeConfig struct {
	fs vfs.FileSystem
}

// WithFS sets the filesystem used to create the store's data directory.
// The storage engines themselves always use the OS filesystem.
func WithFS(fs vfs.FileSystem) Option {
	return func(cfg *config) {
		cfg.native.fs = fs
	}
}

// Open opens the store of the given application, creating it if needed, in the
// platform's per-user data directory.
func Open(organization, application string, opts ...Option) (*Store, error) {
	return openLocation(location.New(organization, application), opts)
}

// OpenWithQualifier is like Open, with a reverse domain qualifier such as
// "com" used by platforms that name data directories after bundle IDs.
func OpenWithQualifier(qualifier, organization, application string, opts ...Option) (*Store, error) {
	return openLocation(location.Location{
		Qualifier:    qualifier,
		Organization: organization,
		Application:  application,
	}, opts)
}

func openLocation(loc location.Location, opts []Option) (*Store, error) {
	dir, err := loc.DataDir()
	if err != nil {
		return nil, &OpError{Op: "open", Err: kindError(ErrLocation, err)}
	}
	return OpenDir(dir, opts...)
}

// OpenDir opens the store kept in dir, creating the directory and the store if
// needed. The storage engine keeps its files under dir, in an entry named
// after the engine.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	cfg := newConfig(opts)
	if cfg.native.fs == nil {
		cfg.native.fs = osfs.New()
	}

	if err := location.Prepare(cfg.native.fs, dir); err != nil {
		return nil, &OpError{Op: "open", Path: dir, Err: kindError(ErrIo, err)}
	}

	path := filepath.Join(dir, backendFile)
	b, err := openBackend(path, cfg)
	if err != nil {
		return nil, &OpError{Op: "open", Path: path, Err: err}
	}
	cfg.logger.Debug("opened store", "backend", Backend, "path", path)

	return newStore(b, path, cfg), nil
}
