//go:build js && wasm

package pkv

import "go.hackfix.me/pkv/store/localstorage"

// Backend is the name of the storage engine compiled into this build.
const Backend = "localstorage"

const (
	emptyKeyAllowed   = true
	reservedKeyPrefix = ""
)

type backend = localstorage.Store

func openBackend(namespace string, cfg *config) (*backend, error) {
	if cfg.encryptionKey != nil {
		return nil, errNoEncryption()
	}
	return localstorage.Open(namespace)
}
