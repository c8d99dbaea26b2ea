//go:build js && wasm

package pkv

import (
	"go.hackfix.me/pkv/codec"
	"go.hackfix.me/pkv/location"
)

var valueCodec codec.Text

type nativeConfig struct{}

// Open opens the store of the given application in the browser's
// localStorage. Keys are kept under the "<organization>.<application>/"
// prefix, so stores of different applications on the same origin don't
// collide.
func Open(organization, application string, opts ...Option) (*Store, error) {
	return openLocation(location.New(organization, application), opts)
}

// OpenWithQualifier is like Open, with the qualifier prepended to the key
// prefix.
func OpenWithQualifier(qualifier, organization, application string, opts ...Option) (*Store, error) {
	return openLocation(location.Location{
		Qualifier:    qualifier,
		Organization: organization,
		Application:  application,
	}, opts)
}

func openLocation(loc location.Location, opts []Option) (*Store, error) {
	if err := loc.Validate(); err != nil {
		return nil, &OpError{Op: "open", Err: kindError(ErrLocation, err)}
	}
	return OpenNamespace(loc.Namespace(), opts...)
}

// OpenNamespace opens the store whose keys are kept under namespace.
func OpenNamespace(namespace string, opts ...Option) (*Store, error) {
	cfg := newConfig(opts)
	b, err := openBackend(namespace, cfg)
	if err != nil {
		return nil, &OpError{Op: "open", Path: namespace, Err: err}
	}
	cfg.logger.Debug("opened store", "backend", Backend, "namespace", namespace)

	return newStore(b, namespace, cfg), nil
}
