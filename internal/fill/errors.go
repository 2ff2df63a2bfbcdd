package fill

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for transport-level mapping.
type Kind string

const (
	// KindDocument means the uploaded PDF could not be used.
	KindDocument Kind = "document"
	// KindUpstream means an external collaborator (the analyzer) failed.
	KindUpstream Kind = "upstream"
	// KindNotFound means a template, vault entry or analysis was absent.
	KindNotFound Kind = "notfound"
	// KindInternal covers storage and rendering failures on our side.
	KindInternal Kind = "internal"
)

// Error is the service error type. Msg is safe to return to clients; Err
// carries the underlying cause for logs.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a service error.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the kind of a service error, KindInternal for anything
// else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
