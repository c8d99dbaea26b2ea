//go:build !js && !leveldb && !bolt && !sqlite

package pkv

import "go.hackfix.me/pkv/store/badger"

// Backend is the name of the storage engine compiled into this build.
const Backend = "badger"

const (
	backendFile     = "pkv.badger"
	emptyKeyAllowed = false

	// Keys with this prefix hold badger's internal metadata.
	reservedKeyPrefix = "!badger!"
)

type backend = badger.Store

func openBackend(path string, cfg *config) (*backend, error) {
	var opts []badger.Option
	if cfg.encryptionKey != nil {
		opts = append(opts, badger.WithEncryptionKey(cfg.encryptionKey))
	}
	return badger.Open(path, opts...)
}
