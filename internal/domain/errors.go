package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle is returned when an edit would make a group its own descendant.
	ErrCycle = errors.New("attempt to move a group into itself")

	// ErrNotFound is returned by id lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrDisconnected is returned when a wire endpoint is not attached to a
	// group in the same tree as the other endpoint.
	ErrDisconnected = errors.New("wire endpoint is not attached")

	// ErrPortDirection is returned when a wire is created from an input port
	// or to an output port.
	ErrPortDirection = errors.New("wire must run from an output port to an input port")

	// ErrBrokenInvariant marks a failed structural check. It indicates a bug,
	// never a user error.
	ErrBrokenInvariant = errors.New("broken invariant")
)

// InvariantError describes which invariant failed and where.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrBrokenInvariant, e.Invariant, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrBrokenInvariant
}

func brokenf(invariant, format string, args ...any) *InvariantError {
	return &InvariantError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}
