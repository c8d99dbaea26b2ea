package pkv

import (
	"fmt"
	"log/slog"

	"go.hackfix.me/pkv/store"
)

// Option is a function that allows configuring the store.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	encryptionKey []byte
	native        nativeConfig
}

func newConfig(opts []Option) *config {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger used to report store lifecycle events at debug
// level.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithEncryptionKey enables at-rest encryption with an AES key of 16, 24 or 32
// bytes. Only the badger backend supports it; opening a store with any other
// backend fails with ErrBackend.
func WithEncryptionKey(key []byte) Option {
	return func(cfg *config) {
		cfg.encryptionKey = key
	}
}

func errNoEncryption() error {
	return store.NewError(store.ErrBackend,
		fmt.Errorf("encryption is not supported by the %s backend", Backend))
}
