package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped by a *ValidationError listing the violated fields.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an identifier is not a well-formed task id.
	// It is distinct from a well-formed id that matches no record.
	ErrInvalidID = errors.New("invalid ID")
)
