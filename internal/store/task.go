package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TxTaskFn runs inside a store transaction. The TaskStore it receives is bound
// to that transaction and must not be used after the function returns.
type TxTaskFn func(ctx context.Context, tx TaskStore) error

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task. The task must already be normalized and valid;
	// implementations re-check it and return ErrInvalidEntity otherwise.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns one page of tasks matching the query, newest first.
	// Ties on creation time are broken by id, descending.
	List(ctx context.Context, query domain.TaskQuery) ([]*domain.Task, error)

	// Count returns how many tasks match the query's filter and owner,
	// ignoring paging.
	Count(ctx context.Context, query domain.TaskQuery) (int64, error)

	// Update applies the present fields of patch and sets updatedAt in one
	// atomic write, returning the stored result.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch, now time.Time) (*domain.Task, error)

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteCompleted removes every completed task and returns their ids.
	// Call it through WithinTx when the removal must be all-or-nothing.
	DeleteCompleted(ctx context.Context) ([]uuid.UUID, error)

	// WithinTx runs fn in a single atomic unit. The unit commits when fn
	// returns nil and aborts when fn returns an error or panics. Resources
	// held by the unit are released in every case.
	WithinTx(ctx context.Context, fn TxTaskFn) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
