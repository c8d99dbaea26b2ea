//go:build !js && leveldb

package pkv

import "go.hackfix.me/pkv/store/leveldb"

// Backend is the name of the storage engine compiled into this build.
const Backend = "leveldb"

const (
	backendFile       = "pkv.leveldb"
	emptyKeyAllowed   = true
	reservedKeyPrefix = ""
)

type backend = leveldb.Store

func openBackend(path string, cfg *config) (*backend, error) {
	if cfg.encryptionKey != nil {
		return nil, errNoEncryption()
	}
	return leveldb.Open(path)
}
