package resource

import (
	"errors"
	"fmt"
)

// ErrPending is reported by Read while the resource has not settled.
// Content functions should treat it like any other error and return
// early; the renderer re-evaluates them once the resource settles.
var ErrPending = errors.New("resource pending")

// ErrKeyConflict is reported when a key is re-requested with a
// different value type within the same render.
var ErrKeyConflict = errors.New("resource key conflict")

// Error is a data-source failure attributed to a resource. It wraps
// the opaque cause returned by the fetch function.
type Error struct {
	Key   Key
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Key, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}
