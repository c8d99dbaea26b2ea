package pkv

import (
	"errors"
	"fmt"

	"go.hackfix.me/pkv/store"
)

// Errors returned by the store. Every error returned by a Store method is an
// *OpError wrapping one of these, so they can be checked with errors.Is.
var (
	// ErrNotFound is returned when the key doesn't exist.
	ErrNotFound = store.ErrNotFound
	// ErrIo is returned when the operating system failed the operation, e.g.
	// the disk is full or permissions are missing.
	ErrIo = store.ErrIo
	// ErrLocked is returned by the Open functions when another handle, in
	// this or another process, has the store open.
	ErrLocked = store.ErrLocked
	// ErrCorrupt is returned when the backend detected damaged data. No
	// repair is attempted.
	ErrCorrupt = store.ErrCorrupt
	// ErrBackend is returned for any other storage engine failure.
	ErrBackend = store.ErrBackend

	ErrDeserialize = errors.New("value does not decode as the requested type")
	ErrSerialize   = errors.New("value cannot be encoded")
	ErrInvalidKey  = errors.New("invalid key")
	ErrLocation    = errors.New("storage location cannot be resolved")
	ErrClosed      = errors.New("store is closed")
)

// OpError records a failed store operation.
type OpError struct {
	Op   string // "open", "get", "set", "remove", "clear", "keys", "flush" or "close"
	Key  string // the key for get, set and remove
	Path string // the store location for open
	Err  error
}

func (e *OpError) Error() string {
	switch e.Op {
	case "get", "set", "remove":
		return fmt.Sprintf("pkv: %s %q: %s", e.Op, e.Key, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("pkv: %s %s: %s", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("pkv: %s: %s", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// kindError classifies err as kind, keeping only its message so that library
// error types don't leak to callers.
func kindError(kind, err error) error {
	return store.NewError(kind, err)
}
