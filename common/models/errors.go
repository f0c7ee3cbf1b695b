package models

import "errors"

// Domain error taxonomy. Services wrap these with context via fmt.Errorf
// and the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrNotFound means a referenced design (start, ancestor, or branch
	// source) does not exist or is not visible to the requesting actor
	ErrNotFound = errors.New("not found")

	// ErrImmutableField means an update attempted to mutate parent_id or
	// image_ref after creation; never silently ignored or coerced
	ErrImmutableField = errors.New("immutable field")

	// ErrCycleDetected means a lineage walk revisited an id; signals data
	// corruption, never truncated away like an ordinary missing ancestor
	ErrCycleDetected = errors.New("lineage cycle detected")

	// ErrNotReady means a branch was attempted from a design whose
	// generation has not completed yet
	ErrNotReady = errors.New("design not ready")

	// ErrValidation means malformed creation input (missing owner, etc.)
	ErrValidation = errors.New("validation failed")

	// ErrForbidden means the actor is not allowed to act on the design
	ErrForbidden = errors.New("forbidden")
)
