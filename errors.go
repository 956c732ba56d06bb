package userstore

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by every operation called before Connect or
// after Close.
var ErrNotConnected = errors.New("not connected")

// ErrClosed is returned by Connect after Close when the backend was supplied
// with WithStore and so cannot be reopened.
var ErrClosed = errors.New("backend closed")

// StoreError is the single error kind returned by DB. It records the
// operation that failed and carries the backend error unchanged.
type StoreError struct {
	Op  string
	Err error
}

// Error formats the failure as "userstore: <op>: <backend message>".
func (e *StoreError) Error() string {
	return fmt.Sprintf("userstore: %s: %v", e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is, or wraps, a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
