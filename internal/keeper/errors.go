package keeper

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service or the database matches
// exactly one of these with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication error")
	ErrStorage    = errors.New("storage error")
	ErrFormat     = errors.New("format error")
	ErrIO         = errors.New("i/o error")
	ErrCancelled  = errors.New("cancelled by user")
)

// Specific failures callers commonly branch on.
var (
	ErrNotInitialized   = &Error{Kind: ErrAuth, Msg: "master password not set"}
	ErrWrongOldPassword = &Error{Kind: ErrAuth, Msg: "incorrect old password"}
	ErrWrongPassphrase  = &Error{Kind: ErrAuth, Msg: "incorrect passphrase"}
	ErrPasswordTooShort = &Error{Kind: ErrValidation, Msg: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
)

// Error is a classified failure. Kind is one of the Err* kinds above; Err is
// the optional underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds a classified error. A %w verb in format keeps the cause
// reachable through errors.Is and errors.As.
func Errorf(kind error, format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Err: wrapped}
}

// StorageError wraps a database failure with a description of what was
// being done, e.g. StorageError("listing entries", err).
func StorageError(doing string, err error) error {
	return &Error{Kind: ErrStorage, Msg: doing, Err: err}
}

// KindOf returns the kind of err, or nil if err is not classified.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrAuth, ErrStorage, ErrFormat, ErrIO, ErrCancelled} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
