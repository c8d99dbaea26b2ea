package store

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"syscall"
)

// Error kinds shared by all backends. Adapters translate their native errors
// into one of these before returning, so no engine specific error type crosses
// the adapter boundary.
var (
	ErrNotFound = errors.New("key not found")
	ErrIo       = errors.New("i/o failure")
	ErrLocked   = errors.New("store is locked by another handle")
	ErrCorrupt  = errors.New("store is corrupt")
	ErrBackend  = errors.New("backend failure")
)

// Error is a native backend error translated into one of the error kinds.
// Only the description of the native error is kept.
type Error struct {
	Kind error
	Msg  string
}

// NewError returns an Error of the given kind describing cause.
func NewError(kind error, cause error) *Error {
	e := &Error{Kind: kind}
	if cause != nil {
		e.Msg = cause.Error()
	}
	return e
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// IsIO reports whether err originates from the operating system, e.g. a
// failed file operation, a full disk or a permission problem.
func IsIO(err error) bool {
	var (
		pathErr *fs.PathError
		linkErr *os.LinkError
		sysErr  *os.SyscallError
	)
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) ||
		errors.As(err, &sysErr) || errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EIO)
}

// IsLockContention reports whether err was caused by a file lock held by
// another handle.
func IsLockContention(err error) bool {
	if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource temporarily unavailable") ||
		strings.Contains(msg, "already locked")
}
