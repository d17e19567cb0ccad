// File: internal/faults/faults.go
package faults

import (
	"errors"
	"fmt"
)

// Class is a string type used for structured failure classification across
// the capture, overlay, input and oracle layers. Using a custom type ensures
// that only predefined constants can be used where a Class is expected.
type Class string

const (
	// ClassAcquisition covers any failing OS drawing-surface, device-context
	// or bitmap call. Fatal to the run; no partial frame or overlay state is
	// left behind.
	ClassAcquisition Class = "ACQUISITION_FAILURE"

	// ClassTransport covers oracle call timeouts, network errors and
	// malformed HTTP responses. Fatal for that call, never retried.
	ClassTransport Class = "TRANSPORT_FAILURE"

	// ClassDecode covers oracle responses that carry no extractable JSON.
	// Recovered up to a consecutive limit before becoming fatal.
	ClassDecode Class = "DECODE_FAILURE"

	// ClassValidation covers parsed commands that fail their field checks.
	// Recovered silently by skipping the iteration.
	ClassValidation Class = "VALIDATION_FAILURE"

	// ClassExecution covers synthetic input injection reporting fewer
	// accepted events than requested. Fatal; partial injection is not
	// distinguished from total failure.
	ClassExecution Class = "EXECUTION_FAILURE"
)

// Error pairs a failure class with an underlying cause so callers can branch
// on the class with Is() while still unwrapping the OS-level error.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Class)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error from a format string.
func New(class Class, format string, args ...any) error {
	return &Error{Class: class, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error. A nil err returns nil so call sites can
// wrap unconditionally.
func Wrap(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: class, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given class.
func Is(err error, class Class) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class == class
	}
	return false
}
