package sdm

import (
	"errors"
	"fmt"
)

// Kind is the engine's error taxonomy (spec §7). pkg/dispatch maps
// each Kind to a CoAP response code; the engine itself only ever
// returns a Kind-tagged error.
type Kind int

const (
	KindOk Kind = iota
	KindInputArg
	KindLogic
	KindNotFound
	KindMethodNotAllowed
	KindBadRequest
	KindMemory
	KindInternal
	KindServiceUnavailable
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindInputArg:
		return "input_arg"
	case KindLogic:
		return "logic"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindBadRequest:
		return "bad_request"
	case KindMemory:
		return "memory"
	case KindInternal:
		return "internal"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every exported engine
// function that can fail. It carries the path the failure occurred
// at (RootPath() if not applicable) so callers and logs can report
// exactly what was being operated on.
type Error struct {
	Kind Kind
	Path Path
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("sdm: %s at %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("sdm: %s at %s: %v", e.Kind, e.Path, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// NewError builds a Kind-tagged error with a formatted message.
func NewError(kind Kind, path Path, format string, args ...interface{}) error {
	return &Error{Kind: kind, Path: path, err: fmt.Errorf(format, args...)}
}

// WrapError tags an existing error with a Kind and path.
func WrapError(kind Kind, path Path, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, err: err}
}

// KindOf extracts the Kind of err, returning KindOk for a nil error
// and KindInternal for an error that did not originate from this
// package (a contract violation by a user-supplied callback).
func KindOf(err error) Kind {
	if err == nil {
		return KindOk
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// PathOf extracts the Path attached to err, or RootPath() if none.
func PathOf(err error) Path {
	var se *Error
	if errors.As(err, &se) {
		return se.Path
	}
	return RootPath()
}
