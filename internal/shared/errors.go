package shared

import "errors"

// Sentinel errors shared across domain packages. Domain-specific errors wrap
// one of these with %w so the HTTP layer can map them without knowing every
// package's taxonomy.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates caller-supplied data violates a precondition.
	// Nothing is written when a validation error is returned.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates the record is not in a state that allows the action.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict indicates a uniqueness or idempotency conflict.
	ErrConflict = errors.New("conflict")
	// ErrConfiguration indicates required reference data (such as a well-known
	// account) is missing. It is fatal for the operation, never defaulted around.
	ErrConfiguration = errors.New("configuration error")
)
