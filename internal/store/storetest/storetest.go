// Package storetest holds a behavioral suite that every store.TaskStore
// implementation must pass. Backends call Run from their own tests.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.TaskStore

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newStore(t)) })
	t.Run("ListOrderingAndPaging", func(t *testing.T) { testListOrderingAndPaging(t, newStore(t)) })
	t.Run("ListFilters", func(t *testing.T) { testListFilters(t, newStore(t)) })
	t.Run("ListTieBreak", func(t *testing.T) { testListTieBreak(t, newStore(t)) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("DeleteCompletedWithinTx", func(t *testing.T) { testDeleteCompletedWithinTx(t, newStore(t)) })
	t.Run("WithinTxRollsBack", func(t *testing.T) { testWithinTxRollsBack(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

// Seed creates a task with the given text, completion state and creation
// offset from a fixed base time.
func Seed(t *testing.T, s store.TaskStore, text string, completed bool, owner *uuid.UUID, offset time.Duration) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(text, owner, base.Add(offset))
	require.NoError(t, err)
	task.Completed = completed
	require.NoError(t, s.Create(context.Background(), task))
	return task
}

func texts(tasks []*domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Text)
	}
	return out
}

func assertSameTask(t *testing.T, want, got *domain.Task) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, want.Completed, got.Completed)
	assert.Equal(t, want.OwnerID, got.OwnerID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}

func testCreateAndGet(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	owner := uuid.New()

	withOwner := Seed(t, s, "Buy milk", false, &owner, 0)
	withoutOwner := Seed(t, s, "Walk dog", true, nil, time.Second)

	got, err := s.GetByID(ctx, withOwner.ID)
	require.NoError(t, err)
	assertSameTask(t, withOwner, got)

	got, err = s.GetByID(ctx, withoutOwner.ID)
	require.NoError(t, err)
	assertSameTask(t, withoutOwner, got)
}

func testGetMissing(t *testing.T, s store.TaskStore) {
	got, err := s.GetByID(context.Background(), uuid.New())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func testCreateDuplicate(t *testing.T, s store.TaskStore) {
	task := Seed(t, s, "Buy milk", false, nil, 0)

	err := s.Create(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	var dup *store.DuplicateKeyError
	assert.True(t, errors.As(err, &dup))
}

func testListOrderingAndPaging(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	for i, text := range []string{"t0", "t1", "t2", "t3", "t4"} {
		Seed(t, s, text, false, nil, time.Duration(i)*time.Minute)
	}

	first := domain.NewTaskQuery(domain.FilterAll, nil, 1, 2)
	tasks, err := s.List(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"t4", "t3"}, texts(tasks))

	tasks, err = s.List(ctx, domain.NewTaskQuery(domain.FilterAll, nil, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"t0"}, texts(tasks))

	tasks, err = s.List(ctx, domain.NewTaskQuery(domain.FilterAll, nil, 4, 2))
	require.NoError(t, err)
	assert.Empty(t, tasks)

	total, err := s.Count(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func testListFilters(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	Seed(t, s, "a-active", false, &alice, 0)
	Seed(t, s, "a-done", true, &alice, time.Minute)
	Seed(t, s, "b-active", false, &bob, 2*time.Minute)
	Seed(t, s, "nobody-done", true, nil, 3*time.Minute)

	tests := []struct {
		name   string
		filter domain.TaskFilter
		owner  *uuid.UUID
		want   []string
	}{
		{"all", domain.FilterAll, nil, []string{"nobody-done", "b-active", "a-done", "a-active"}},
		{"active", domain.FilterActive, nil, []string{"b-active", "a-active"}},
		{"completed", domain.FilterCompleted, nil, []string{"nobody-done", "a-done"}},
		{"owner", domain.FilterAll, &alice, []string{"a-done", "a-active"}},
		{"owner completed", domain.FilterCompleted, &alice, []string{"a-done"}},
		{"owner without tasks", domain.FilterAll, ptr(uuid.New()), []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := domain.NewTaskQuery(tc.filter, tc.owner, 1, 0)
			tasks, err := s.List(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, texts(tasks))

			total, err := s.Count(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.want)), total)
		})
	}
}

func testListTieBreak(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	var seeded []*domain.Task
	for _, text := range []string{"x", "y", "z"} {
		seeded = append(seeded, Seed(t, s, text, false, nil, 0))
	}
	sort.Slice(seeded, func(i, j int) bool {
		return bytes.Compare(seeded[i].ID[:], seeded[j].ID[:]) > 0
	})

	tasks, err := s.List(ctx, domain.NewTaskQuery(domain.FilterAll, nil, 1, 10))
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i := range seeded {
		assert.Equal(t, seeded[i].ID, tasks[i].ID)
	}
}

func testUpdatePartial(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	task := Seed(t, s, "Buy milk", false, nil, 0)

	done := true
	later := base.Add(time.Hour)
	updated, err := s.Update(ctx, task.ID, domain.TaskPatch{Completed: &done}, later)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Text)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))

	text := "Buy oat milk"
	updated, err = s.Update(ctx, task.ID, domain.TaskPatch{Text: &text}, later.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Text)
	assert.True(t, updated.Completed)

	// A clock behind createdAt must not produce updatedAt < createdAt.
	updated, err = s.Update(ctx, task.ID, domain.TaskPatch{}, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(task.CreatedAt))

	stored, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assertSameTask(t, updated, stored)
}

func testUpdateMissing(t *testing.T, s store.TaskStore) {
	done := true
	got, err := s.Update(context.Background(), uuid.New(), domain.TaskPatch{Completed: &done}, base)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func testDelete(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	task := Seed(t, s, "Buy milk", false, nil, 0)
	keep := Seed(t, s, "Walk dog", false, nil, time.Second)

	require.NoError(t, s.Delete(ctx, task.ID))

	_, err := s.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.ErrorIs(t, s.Delete(ctx, task.ID), store.ErrTaskNotFound)

	_, err = s.GetByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func testDeleteCompletedWithinTx(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	done1 := Seed(t, s, "done 1", true, nil, 0)
	Seed(t, s, "open", false, nil, time.Second)
	done2 := Seed(t, s, "done 2", true, nil, 2*time.Second)

	var removed []uuid.UUID
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		var err error
		removed, err = tx.DeleteCompleted(ctx)
		return err
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{done1.ID, done2.ID}, removed)

	tasks, err := s.List(ctx, domain.NewTaskQuery(domain.FilterAll, nil, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"open"}, texts(tasks))

	removed, err = s.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func testWithinTxRollsBack(t *testing.T, s store.TaskStore) {
	ctx := context.Background()
	Seed(t, s, "done", true, nil, 0)
	Seed(t, s, "open", false, nil, time.Second)

	errAbort := errors.New("abort")
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		removed, err := tx.DeleteCompleted(ctx)
		require.NoError(t, err)
		require.Len(t, removed, 1)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	total, err := s.Count(ctx, domain.NewTaskQuery(domain.FilterAll, nil, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func ptr[T any](v T) *T { return &v }
