package registry

import (
	"errors"
	"fmt"
)

// Error kinds returned by registry operations. Callers discriminate with
// errors.Is; every failure is terminal for the triggering call and leaves
// state untouched.
var (
	// ErrInvalidInput marks malformed or out-of-range caller-supplied
	// values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a reference to an unknown document ID.
	ErrNotFound = errors.New("document not found")

	// ErrAccessDenied marks a caller lacking the required effective
	// access level.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState marks an operation that is not legal for the
	// document's current status.
	ErrInvalidState = errors.New("invalid document state")

	// ErrIdentifierCollision marks the generator's defensive check
	// tripping on an already-known ID.
	ErrIdentifierCollision = errors.New("identifier collision")

	// ErrRegistryPaused marks a mutating operation arriving while the
	// registry is paused.
	ErrRegistryPaused = errors.New("registry paused")
)

func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func accessDeniedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAccessDenied, fmt.Sprintf(format, args...))
}
