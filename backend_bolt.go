//go:build !js && bolt

package pkv

import "go.hackfix.me/pkv/store/bolt"

// Backend is the name of the storage engine compiled into this build.
const Backend = "bolt"

const (
	backendFile       = "pkv.bolt"
	emptyKeyAllowed   = false
	reservedKeyPrefix = ""
)

type backend = bolt.Store

func openBackend(path string, cfg *config) (*backend, error) {
	if cfg.encryptionKey != nil {
		return nil, errNoEncryption()
	}
	return bolt.Open(path)
}
