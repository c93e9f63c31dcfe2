package document

import "errors"

var (
	// ErrNotFound is returned when a referenced document or signature does not exist
	ErrNotFound = errors.New("document not found")

	// ErrValidation is returned when operation input is malformed
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition is returned when an operation is invoked in a state that
	// does not satisfy its guard
	ErrPrecondition = errors.New("precondition not satisfied")

	// ErrConflict is returned when a generated document number collides with
	// an existing one and the retry was exhausted
	ErrConflict = errors.New("document number conflict")

	// ErrUnauthorized is returned when the caller does not own the document
	ErrUnauthorized = errors.New("not authorized")
)
