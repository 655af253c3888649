package network

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrSelfLoop        = errors.New("segment endpoints are identical")
	ErrNodeNotFound    = errors.New("node not found")
	ErrSegmentNotFound = errors.New("segment not found")
	ErrCircuitNotFound = errors.New("circuit not found")
	ErrDuplicateID     = errors.New("identifier already in use")
	ErrConduitIndex    = errors.New("conduit index out of range")
)

// NetworkError provides structured error information for network
// mutations.
type NetworkError struct {
	Op     string // operation that failed (e.g. "AddSegment")
	Entity string // entity type ("node", "segment", "circuit")
	ID     string // entity ID, if applicable
	Cause  error  // underlying error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *NetworkError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// Convenience constructors for common error patterns

func nodeError(op string, id NodeID, cause error) error {
	return &NetworkError{Op: op, Entity: "node", ID: string(id), Cause: cause}
}

func segmentError(op string, id SegmentID, cause error) error {
	return &NetworkError{Op: op, Entity: "segment", ID: string(id), Cause: cause}
}

func circuitError(op string, id CircuitID, cause error) error {
	return &NetworkError{Op: op, Entity: "circuit", ID: string(id), Cause: cause}
}

// IsNotFound returns true if the error is any of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrSegmentNotFound) ||
		errors.Is(err, ErrCircuitNotFound)
}
