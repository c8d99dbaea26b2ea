package store

// Store defines the primitive operations every storage backend must implement.
// Keys are opaque strings, values are the already encoded bytes.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Clear removes every entry.
	Clear() error
	// ForEach calls fn for every entry in key order. The store must not be
	// modified from within fn.
	ForEach(fn func(key string, value []byte) error) error
	// Flush forces pending writes to stable storage, as far as the engine
	// supports it.
	Flush() error
	// Close flushes and releases the underlying engine.
	Close() error
}
