package render

import (
	"errors"
	"fmt"

	"github.com/ebb-ui/ebb/pkg/resource"
)

// ErrBoundaryResolved reports an attempt to resolve or emit a boundary
// that has already settled. It indicates a renderer bug, not a data
// failure, so it always surfaces wrapped in a FatalError.
var ErrBoundaryResolved = errors.New("boundary already resolved")

// BoundaryError is the aggregate failure of one suspense boundary: the
// resource errors observed by its content once every resource settled.
// It is what an enclosing error boundary absorbs, and what escapes to
// the caller in async mode when no error boundary encloses the failure.
type BoundaryError struct {
	Boundary int
	Errors   []*resource.Error
}

// Error implements the error interface.
func (e *BoundaryError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("boundary %d: %v", e.Boundary, e.Errors[0])
	}
	return fmt.Sprintf("boundary %d: %d resources failed", e.Boundary, len(e.Errors))
}

// Unwrap exposes the underlying resource errors to errors.Is/As.
func (e *BoundaryError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, re := range e.Errors {
		out[i] = re
	}
	return out
}

// FatalError aborts a render before completion: an unabsorbed failure
// in async mode, a violated emission invariant, or a dead sink.
// Transports map it to a full error response since no usable document
// was produced.
type FatalError struct {
	Cause error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("render aborted: %v", e.Cause)
}

// Unwrap returns the abort cause.
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
