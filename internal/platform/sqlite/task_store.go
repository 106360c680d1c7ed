package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"gorm.io/gorm"
)

// TaskStore implements store.TaskStore on top of a GORM SQLite connection.
type TaskStore struct {
	db     *gorm.DB
	inTx   bool
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. If logger is nil, a default logger will be used.
func NewTaskStore(db *gorm.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rec := toRecord(task)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		err = mapError(err, rec.ID)
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", rec.ID))
		return err
	}

	log.Info("task created successfully", slog.String("task_id", rec.ID))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *TaskStore) get(db *gorm.DB, id uuid.UUID) (*domain.Task, error) {
	var rec taskRecord
	if err := db.First(&rec, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return rec.toDomain()
}

// List implements store.TaskStore.List.
func (s *TaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	var recs []taskRecord
	err := s.db.WithContext(ctx).
		Scopes(matching(q)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&recs).Error
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(recs))
	for i := range recs {
		task, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *TaskStore) Count(ctx context.Context, q domain.TaskQuery) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&taskRecord{}).Scopes(matching(q)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	changes := map[string]any{
		"updated_at": gorm.Expr("MAX(created_at, ?)", domain.Timestamp(now).UnixMilli()),
	}
	if patch.Text != nil {
		changes["text"] = *patch.Text
	}
	if patch.Completed != nil {
		changes["completed"] = *patch.Completed
	}

	var updated *domain.Task
	err := s.atomic(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&taskRecord{}).Where("id = ?", id.String()).Updates(changes)
		if res.Error != nil {
			return fmt.Errorf("failed to update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrTaskNotFound
		}
		var err error
		updated, err = s.get(tx, id)
		return err
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, err
	}

	log.Info("task updated successfully", slog.String("task_id", id.String()))
	return updated, nil
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id.String())
	if res.Error != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", res.Error.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// DeleteCompleted implements store.TaskStore.DeleteCompleted.
func (s *TaskStore) DeleteCompleted(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.atomic(ctx, func(tx *gorm.DB) error {
		var raw []string
		if err := tx.Model(&taskRecord{}).Where("completed = ?", true).Pluck("id", &raw).Error; err != nil {
			return fmt.Errorf("failed to select completed tasks: %w", err)
		}
		if len(raw) == 0 {
			return nil
		}
		if err := tx.Where("id IN ?", raw).Delete(&taskRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete completed tasks: %w", err)
		}
		for _, r := range raw {
			id, err := uuid.Parse(r)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete completed tasks",
			slog.String("error", err.Error()))
		return nil, err
	}
	return ids, nil
}

// WithinTx implements store.TaskStore.WithinTx. GORM rolls the transaction
// back when fn returns an error or panics; the panic is re-raised.
func (s *TaskStore) WithinTx(ctx context.Context, fn store.TxTaskFn) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &TaskStore{db: tx, inTx: true, logger: s.logger})
	})
}

// Ping implements store.TaskStore.Ping.
func (s *TaskStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// atomic runs fn in the current transaction, or in a new one when the store
// is not bound to a transaction.
func (s *TaskStore) atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// matching applies the filter and owner of q.
func matching(q domain.TaskQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if completed := q.Filter.Completed(); completed != nil {
			db = db.Where("completed = ?", *completed)
		}
		if q.OwnerID != nil {
			db = db.Where("owner_id = ?", q.OwnerID.String())
		}
		return db
	}
}

func mapError(err error, id string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.NewDuplicateKeyError("tasks.id", map[string]string{"id": id}, err)
	}
	return fmt.Errorf("failed to create task: %w", err)
}
