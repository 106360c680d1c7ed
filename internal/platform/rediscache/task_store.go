package rediscache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CachedTaskStore is a store.TaskStore that serves GetByID from a Cache.
type CachedTaskStore struct {
	next   store.TaskStore
	cache  *Cache
	logger *slog.Logger
}

var _ store.TaskStore = (*CachedTaskStore)(nil)

// NewCachedTaskStore wraps next with cache.
// If logger is nil, a default logger will be used.
func NewCachedTaskStore(next store.TaskStore, cache *Cache, logger *slog.Logger) *CachedTaskStore {
	if next == nil || cache == nil {
		panic("store and cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedTaskStore{
		next:   next,
		cache:  cache,
		logger: logger.With(slog.String("component", "task_cache")),
	}
}

// Create implements store.TaskStore.Create. New ids are never cached, so
// nothing needs invalidating.
func (s *CachedTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return s.next.Create(ctx, task)
}

// GetByID implements store.TaskStore.GetByID as a read-through lookup. The
// row is written back only if no write invalidated the task while it was
// being read, so a slow reader never restores a stale or deleted task.
func (s *CachedTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := id.String()

	var cached domain.Task
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("task cache read failed", slog.String("task_id", key), slog.String("error", err.Error()))
	}
	if hit {
		return &cached, nil
	}

	gen, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		log.Warn("task cache read failed", slog.String("task_id", key), slog.String("error", genErr.Error()))
	}

	task, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return task, nil
	}
	if _, err := s.cache.SetIfGeneration(ctx, key, gen, task); err != nil {
		log.Warn("task cache write failed", slog.String("task_id", key), slog.String("error", err.Error()))
	}
	return task, nil
}

// List implements store.TaskStore.List. Listings are not cached.
func (s *CachedTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	return s.next.List(ctx, q)
}

// Count implements store.TaskStore.Count.
func (s *CachedTaskStore) Count(ctx context.Context, q domain.TaskQuery) (int64, error) {
	return s.next.Count(ctx, q)
}

// Update implements store.TaskStore.Update and evicts the task on success.
func (s *CachedTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	task, err := s.next.Update(ctx, id, patch, now)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return task, nil
}

// Delete implements store.TaskStore.Delete and evicts the task on success.
func (s *CachedTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteCompleted implements store.TaskStore.DeleteCompleted and evicts every
// removed task.
func (s *CachedTaskStore) DeleteCompleted(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.next.DeleteCompleted(ctx)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ids...)
	return ids, nil
}

// WithinTx implements store.TaskStore.WithinTx. Keys written inside fn are
// evicted once the underlying transaction has committed.
func (s *CachedTaskStore) WithinTx(ctx context.Context, fn store.TxTaskFn) error {
	var pending []uuid.UUID
	err := s.next.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		return fn(ctx, &txStore{TaskStore: tx, pending: &pending})
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, pending...)
	return nil
}

// Ping implements store.TaskStore.Ping. Only the underlying store decides
// health; a cache outage degrades to uncached reads.
func (s *CachedTaskStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *CachedTaskStore) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task cache invalidation failed",
			slog.Int("keys", len(keys)),
			slog.String("error", err.Error()))
	}
}

// txStore records the ids a transaction touches. Reads bypass the cache so
// the callback sees its own uncommitted writes.
type txStore struct {
	store.TaskStore
	pending *[]uuid.UUID
}

func (t *txStore) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch, now time.Time) (*domain.Task, error) {
	task, err := t.TaskStore.Update(ctx, id, patch, now)
	if err == nil {
		*t.pending = append(*t.pending, id)
	}
	return task, err
}

func (t *txStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := t.TaskStore.Delete(ctx, id)
	if err == nil {
		*t.pending = append(*t.pending, id)
	}
	return err
}

func (t *txStore) DeleteCompleted(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := t.TaskStore.DeleteCompleted(ctx)
	if err == nil {
		*t.pending = append(*t.pending, ids...)
	}
	return ids, err
}

func (t *txStore) WithinTx(ctx context.Context, fn store.TxTaskFn) error {
	return fn(ctx, t)
}
