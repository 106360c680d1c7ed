package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "text", "completed", "owner_id", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*postgres.PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresTaskStore(db, nil), mock
}

func TestNewPostgresTaskStore_PanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() { postgres.NewPostgresTaskStore(nil, nil) })
}

func TestPostgresTaskStore_Create(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	owner := uuid.New()

	t.Run("inserts a valid task", func(t *testing.T) {
		s, mock := newMockStore(t)
		task, err := domain.NewTask("Buy milk", &owner, now)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WithArgs(task.ID.String(), "Buy milk", false, owner.String(), task.CreatedAt, task.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), task))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an invalid task without touching the database", func(t *testing.T) {
		s, mock := newMockStore(t)

		err := s.Create(context.Background(), &domain.Task{ID: uuid.New(), CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violations to duplicate key errors", func(t *testing.T) {
		s, mock := newMockStore(t)
		task, err := domain.NewTask("Buy milk", nil, now)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WillReturnError(&pgconn.PgError{
				Code:           "23505",
				ConstraintName: "tasks_pkey",
				Detail:         "Key (id)=(" + task.ID.String() + ") already exists.",
			})

		err = s.Create(context.Background(), task)
		require.ErrorIs(t, err, store.ErrDuplicate)

		var dup *store.DuplicateKeyError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "tasks_pkey", dup.Constraint)
		assert.Equal(t, map[string]string{"id": task.ID.String()}, dup.Key)
	})
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id.String(), "Walk dog", true, nil, created, created.Add(time.Minute)))

		task, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, "Walk dog", task.Text)
		assert.True(t, task.Completed)
		assert.Nil(t, task.OwnerID)
		assert.Equal(t, created.Add(time.Minute), task.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(columns))

		task, err := s.GetByID(context.Background(), id)
		assert.Nil(t, task)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_ListAndCount(t *testing.T) {
	owner := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := domain.NewTaskQuery(domain.FilterActive, &owner, 2, 10)

	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM tasks WHERE completed = $1 AND owner_id = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs(false, owner.String(), 10, 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), "b", false, owner.String(), created.Add(time.Second), created.Add(time.Second)).
			AddRow(uuid.NewString(), "a", false, owner.String(), created, created))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks WHERE completed = $1 AND owner_id = $2")).
		WithArgs(false, owner.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	tasks, err := s.List(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].Text)
	require.NotNil(t, tasks[0].OwnerID)
	assert.Equal(t, owner, *tasks[0].OwnerID)

	total, err := s.Count(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_ListAllHasNoWhereClause(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(domain.DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	tasks, err := s.List(context.Background(), domain.NewTaskQuery(domain.FilterAll, nil, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_Update(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	now := created.Add(time.Hour)

	t.Run("returns the stored row", func(t *testing.T) {
		s, mock := newMockStore(t)
		done := true
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks")).
			WithArgs(id.String(), nil, true, now).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(id.String(), "x", true, nil, created, now))

		task, err := s.Update(context.Background(), id, domain.TaskPatch{Completed: &done}, now)
		require.NoError(t, err)
		assert.True(t, task.Completed)
		assert.Equal(t, now, task.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		text := "new"
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks")).
			WithArgs(id.String(), "new", nil, now).
			WillReturnRows(sqlmock.NewRows(columns))

		task, err := s.Update(context.Background(), id, domain.TaskPatch{Text: &text}, now)
		assert.Nil(t, task)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
			WithArgs(id.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.Delete(context.Background(), id))
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, s.Delete(context.Background(), id), store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_DeleteCompletedWithinTx(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("commits and returns removed ids", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM tasks WHERE completed = TRUE RETURNING id")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.String()).AddRow(b.String()))
		mock.ExpectCommit()

		var removed []uuid.UUID
		err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.TaskStore) error {
			var err error
			removed, err = tx.DeleteCompleted(ctx)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a, b}, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the delete fails", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM tasks WHERE completed = TRUE")).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.TaskStore) error {
			_, err := tx.DeleteCompleted(ctx)
			return err
		})
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the callback panics", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = s.WithinTx(context.Background(), func(ctx context.Context, tx store.TaskStore) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested calls share the transaction", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.TaskStore) error {
			return tx.WithinTx(ctx, func(ctx context.Context, inner store.TaskStore) error {
				assert.Same(t, tx, inner)
				return nil
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	s := postgres.NewPostgresTaskStore(db, nil)
	assert.Error(t, s.Ping(context.Background()))
}
