package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would violate a uniqueness constraint.
	// Backends return it wrapped in a *DuplicateKeyError carrying the key.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a multi-step unit of work could not
	// be committed. Nothing from the unit was applied, so it is safe to retry.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// DuplicateKeyError reports a uniqueness violation together with the
// conflicting key, as far as the backend exposes it.
type DuplicateKeyError struct {
	Constraint string            // index or constraint name, if known
	Key        map[string]string // conflicting field values, if known
	Err        error             // original driver error
}

// NewDuplicateKeyError creates a DuplicateKeyError.
func NewDuplicateKeyError(constraint string, key map[string]string, err error) *DuplicateKeyError {
	return &DuplicateKeyError{Constraint: constraint, Key: key, Err: err}
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	var b strings.Builder
	b.WriteString(ErrDuplicate.Error())
	if e.Constraint != "" {
		fmt.Fprintf(&b, " (constraint %s)", e.Constraint)
	}
	if len(e.Key) > 0 {
		fields := make([]string, 0, len(e.Key))
		for k := range e.Key {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		b.WriteString(": ")
		for i, k := range fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Key[k])
		}
	}
	return b.String()
}

// Is matches ErrDuplicate.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicate
}

// Unwrap returns the driver error.
func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}
