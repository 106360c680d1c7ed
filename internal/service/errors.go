package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Error handling principles:
// 1. Service methods return domain and store sentinel errors unchanged for expected conditions
// 2. Unexpected errors are wrapped in TaskServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes

// ErrNilDependency is returned when a service is constructed without a
// required collaborator.
var ErrNilDependency = errors.New("required dependency is nil")

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "clear_completed")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Errors the API layer maps to a specific response are returned unchanged so
// that their detail (field messages, duplicate key data) survives.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if isKnown(err) {
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isKnown(err error) bool {
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrInvalidID,
		store.ErrNotFound,
		store.ErrDuplicate,
		store.ErrTransactionFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
