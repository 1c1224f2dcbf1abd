// Package apperr classifies failures from the remote note service and the
// editor into a small set of kinds, each with a user-facing remedy.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRepository     = errors.New("no repository selected")
)

// Error carries a classified failure. Op names the operation that failed
// ("create issue", "list repositories").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with an explicit kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation reports a client-side input problem that never reached the network.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

// FromRemote wraps a failure returned by the remote service, classifying it
// from its message unless it is already classified.
func FromRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Op == "" {
			return &Error{Kind: ae.Kind, Op: op, Err: ae.Err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return &Error{Kind: kindOfCause(err), Op: op, Err: err}
}

// KindOf returns the kind of err, classifying unclassified errors by message.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return KindAuth
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return kindOfCause(err)
}

func kindOfCause(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	return Classify(err.Error())
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
