package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// clearIsolation is used by WithinTx so the completed set a bulk delete reads
// is the one it removes.
var clearIsolation = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

const taskColumns = "id, text, completed, owner_id, created_at, updated_at"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, text, completed, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Text,
		task.Completed,
		nullUUID(task.OwnerID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		if store.IsDuplicateError(err) {
			log.Warn("duplicate key during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return err
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := whereClause(q)
	args = append(args, q.Limit, q.Offset())
	query := fmt.Sprintf(
		`SELECT %s FROM tasks%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)-1, len(args),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("filter", string(q.Filter)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, q.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, err
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *PostgresTaskStore) Count(ctx context.Context, q domain.TaskQuery) (int64, error) {
	where, args := whereClause(q)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return total, nil
}

// Update implements store.TaskStore.Update. Absent patch fields keep their
// stored value; updated_at never moves before created_at.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var text sql.NullString
	if patch.Text != nil {
		text = sql.NullString{String: *patch.Text, Valid: true}
	}
	var completed sql.NullBool
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}

	query := `
		UPDATE tasks
		SET text = COALESCE($2::text, text),
		    completed = COALESCE($3::boolean, completed),
		    updated_at = GREATEST(created_at, $4::timestamptz)
		WHERE id = $1
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, text, completed, domain.Timestamp(now)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found for update", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("task updated successfully", slog.String("task_id", id.String()))
	return task, nil
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to read delete result", slog.String("error", err.Error()))
		}
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// DeleteCompleted implements store.TaskStore.DeleteCompleted.
func (s *PostgresTaskStore) DeleteCompleted(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `DELETE FROM tasks WHERE completed = TRUE RETURNING id`)
	if err != nil {
		log.Error("failed to delete completed tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating deleted task ids", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("completed tasks deleted", slog.Int("removed", len(ids)))
	return ids, nil
}

// WithinTx implements store.TaskStore.WithinTx. A store already bound to a
// transaction runs fn inside that transaction.
func (s *PostgresTaskStore) WithinTx(ctx context.Context, fn store.TxTaskFn) error {
	if _, ok := s.db.(*sql.Tx); ok {
		return fn(ctx, s)
	}
	beginner, ok := s.db.(store.TxBeginner)
	if !ok {
		return fmt.Errorf("%T cannot begin transactions", s.db)
	}
	return store.RunInTransaction(ctx, beginner, clearIsolation, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// Ping implements store.TaskStore.Ping.
func (s *PostgresTaskStore) Ping(ctx context.Context) error {
	if p, ok := s.db.(interface{ PingContext(context.Context) error }); ok {
		return p.PingContext(ctx)
	}
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(new(int))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task  domain.Task
		owner uuid.NullUUID
	)
	if err := row.Scan(
		&task.ID,
		&task.Text,
		&task.Completed,
		&owner,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.UUID
		task.OwnerID = &id
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

// whereClause builds the filter shared by List and Count. Placeholders start at $1.
func whereClause(q domain.TaskQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if completed := q.Filter.Completed(); completed != nil {
		args = append(args, *completed)
		conds = append(conds, fmt.Sprintf("completed = $%d", len(args)))
	}
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
