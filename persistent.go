package pkv

import (
	"errors"
	"reflect"
	"sync"
)

// Persistent holds a value of type T in memory and writes it to a store every
// time it changes, e.g. the settings of an application. It is safe for
// concurrent use.
type Persistent[T any] struct {
	store *Store
	key   string

	mu    sync.RWMutex
	value T
}

// NewPersistent loads the value stored in s under TypeKey[T](). If there is
// none, or it doesn't decode as T, the value returned by newDefault is used
// instead, or the zero value of T if newDefault is nil. The default is only
// written to s once it's changed.
func NewPersistent[T any](s *Store, newDefault func() T) (*Persistent[T], error) {
	return NewPersistentKey(s, TypeKey[T](), newDefault)
}

// NewPersistentKey is like NewPersistent, but stores the value under key.
func NewPersistentKey[T any](s *Store, key string, newDefault func() T) (*Persistent[T], error) {
	p := &Persistent[T]{store: s, key: key}
	if err := p.load(newDefault); err != nil {
		return nil, err
	}
	return p, nil
}

// TypeKey returns the key Persistent uses for values of type T: the package
// path and name of T for named types, e.g. "example.com/app.Settings", and
// the type literal otherwise.
func TypeKey[T any]() string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Name() != "" && typ.PkgPath() != "" {
		return typ.PkgPath() + "." + typ.Name()
	}
	return typ.String()
}

// Key returns the key the value is stored under.
func (p *Persistent[T]) Key() string {
	return p.key
}

// Get returns the current value.
func (p *Persistent[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the value and writes it to the store. The value is replaced in
// memory even if writing it fails.
func (p *Persistent[T]) Set(v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	return p.store.Set(p.key, v)
}

// Update calls fn with a pointer to the value, and writes the modified value
// to the store.
func (p *Persistent[T]) Update(fn func(*T)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.value)
	return p.store.Set(p.key, p.value)
}

// Reload replaces the value with the one in the store. If the key is missing
// or its value doesn't decode as T, the value is reset to the zero value of T.
func (p *Persistent[T]) Reload() error {
	return p.load(nil)
}

func (p *Persistent[T]) load(newDefault func() T) error {
	v, err := Get[T](p.store, p.key)
	switch {
	case errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrDeserialize):
		p.store.logger.Warn("discarding stored value", "key", p.key, "error", err)
	case err != nil:
		return err
	}
	if err != nil && newDefault != nil {
		v = newDefault()
	}

	p.mu.Lock()
	p.value = v
	p.mu.Unlock()

	return nil
}
