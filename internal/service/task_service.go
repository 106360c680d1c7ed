package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TaskService provides the task use cases: listing, single-task reads,
// mutations and the bulk clear of completed tasks.
type TaskService interface {
	// List returns one page of tasks matching q together with the total
	// number of matches.
	List(ctx context.Context, q domain.TaskQuery) (*domain.TaskList, error)

	// Get retrieves a task by id.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create normalizes and validates text, then persists a new task.
	Create(ctx context.Context, text string, ownerID *uuid.UUID) (*domain.Task, error)

	// Update applies the fields present in patch. Invalid text rejects the
	// whole patch.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes a task and returns its id.
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	// ClearCompleted removes every completed task in one transaction.
	ClearCompleted(ctx context.Context) (*ClearResult, error)
}

// ClearResult reports how many tasks ClearCompleted removed.
type ClearResult struct {
	Removed int `json:"removed"`
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a task service.
type Option func(*taskServiceImpl)

// WithClock replaces time.Now as the source of task timestamps.
func WithClock(clock Clock) Option {
	return func(s *taskServiceImpl) {
		if clock != nil {
			s.now = clock
		}
	}
}

type taskServiceImpl struct {
	store   store.TaskStore
	emitter events.EventEmitter
	now     Clock
	logger  *slog.Logger
}

// NewTaskService creates a TaskService backed by taskStore.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
			Err:       ErrNilDependency,
		}
	}
	if emitter == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "emitter cannot be nil",
			Err:       ErrNilDependency,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		store:   taskStore,
		emitter: emitter,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(ctx context.Context, q domain.TaskQuery) (*domain.TaskList, error) {
	q = domain.NewTaskQuery(q.Filter, q.OwnerID, q.Page, q.Limit)

	tasks, err := s.store.List(ctx, q)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	total, err := s.store.Count(ctx, q)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to count tasks", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &domain.TaskList{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Tasks: tasks,
	}, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, text string, ownerID *uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(text, ownerID, s.now())
	if err != nil {
		log.Debug("rejected task", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	s.emit(ctx, events.TypeTaskCreated, taskPayload(task))
	return task, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	patch, err := domain.NormalizePatch(patch)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "invalid task update", err)
	}

	task, err := s.store.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	s.emit(ctx, events.TypeTaskUpdated, taskPayload(task))
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return uuid.Nil, NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	s.emit(ctx, events.TypeTaskDeleted, events.TaskPayload{TaskID: id})
	return id, nil
}

// ClearCompleted implements TaskService.ClearCompleted. The delete runs as one
// transaction: on any failure nothing is removed and the returned error wraps
// store.ErrTransactionFailed.
func (s *taskServiceImpl) ClearCompleted(ctx context.Context) (*ClearResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var removed []uuid.UUID
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		ids, err := tx.DeleteCompleted(ctx)
		if err != nil {
			return err
		}
		removed = ids
		return nil
	})
	if err != nil {
		log.Error("clear completed transaction aborted", slog.String("error", err.Error()))
		return nil, &TaskServiceError{
			Operation: "clear_completed",
			Message:   "transaction aborted",
			Err:       fmt.Errorf("%w: %w", store.ErrTransactionFailed, err),
		}
	}

	log.Info("cleared completed tasks", slog.Int("removed", len(removed)))
	s.emit(ctx, events.TypeTasksCleared, events.ClearedPayload{Removed: len(removed), TaskIDs: removed})
	return &ClearResult{Removed: len(removed)}, nil
}

// emit publishes an event. The mutation has already committed, so handler
// failures are logged and not returned.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, payload any) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, payload, s.now())
	if err != nil {
		log.Error("failed to build task event", slog.String("event_type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("task event handler failed", slog.String("event_type", eventType), slog.String("error", err.Error()))
	}
}

func taskPayload(task *domain.Task) events.TaskPayload {
	return events.TaskPayload{
		TaskID:    task.ID,
		OwnerID:   task.OwnerID,
		Completed: task.Completed,
	}
}
