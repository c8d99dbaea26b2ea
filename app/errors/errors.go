package errors

// WithCause is implemented by errors that wrap a lower level error.
type WithCause interface{ Cause() error }

// WithHint is implemented by errors that suggest how to resolve them.
type WithHint interface{ Hint() string }

// Runtime is an error that happened while running a command.
type Runtime struct {
	msg   string
	cause error
	hint  string
}

func NewRuntimeError(msg string, cause error, hint string) Runtime {
	return Runtime{msg: msg, cause: cause, hint: hint}
}

func (e Runtime) Error() string {
	return e.msg
}

func (e Runtime) Cause() error {
	return e.cause
}

func (e Runtime) Hint() string {
	return e.hint
}

func (e Runtime) Unwrap() error {
	return e.cause
}
