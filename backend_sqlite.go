//go:build !js && sqlite

package pkv

import (
	"context"

	"go.hackfix.me/pkv/store/sqlite"
)

// Backend is the name of the storage engine compiled into this build.
const Backend = "sqlite"

const (
	backendFile       = "pkv.sqlite"
	emptyKeyAllowed   = true
	reservedKeyPrefix = ""
)

type backend = sqlite.Store

func openBackend(path string, cfg *config) (*backend, error) {
	if cfg.encryptionKey != nil {
		return nil, errNoEncryption()
	}
	return sqlite.Open(context.Background(), path, sqlite.WithLogger(cfg.logger))
}
