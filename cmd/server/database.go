package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/connect"
	"github.com/phrazzld/taskflow-api/internal/platform/mongodb"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/platform/rediscache"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlite"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// closer releases a backend resource during shutdown.
type closer struct {
	name  string
	close func(ctx context.Context) error
}

// setupTaskStore connects to the configured backend and returns its task
// store together with the closers to run on shutdown, in order.
func setupTaskStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.TaskStore, []closer, error) {
	var (
		taskStore store.TaskStore
		closers   []closer
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connection established", "driver", cfg.Database.Driver)
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		taskStore = postgres.NewPostgresTaskStore(db, logger)
		closers = append(closers, closer{"postgres", func(context.Context) error { return db.Close() }})

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		mongoStore := mongodb.NewTaskStore(client, cfg.Database.Name, logger)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			_ = mongodb.Disconnect(ctx, client, logger)
			return nil, nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		taskStore = mongoStore
		closers = append(closers, closer{"mongo", func(ctx context.Context) error {
			return mongodb.Disconnect(ctx, client, logger)
		}})

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connection established", "driver", cfg.Database.Driver)
		taskStore = sqlite.NewTaskStore(db, logger)
		closers = append(closers, closer{"sqlite", func(context.Context) error { return sqlite.Close(db) }})

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if !cfg.Cache.Enabled() {
		return taskStore, closers, nil
	}

	policy := connect.Policy{Attempts: cfg.Database.ConnectAttempts, Backoff: cfg.Database.ConnectBackoff}
	client, err := rediscache.Open(ctx, cfg.Cache, policy, logger)
	if err != nil {
		closeAll(ctx, closers, logger)
		return nil, nil, err
	}
	cache := rediscache.New(client, rediscache.DefaultPrefix, cfg.Cache.TTL)
	logger.Info("Task cache enabled", "ttl", cfg.Cache.TTL)

	// The cache closes before the store it fronts.
	closers = append([]closer{{"redis", func(context.Context) error {
		logger.Info("Task cache statistics", slog.Any("cache", cache.Stats()))
		return cache.Close()
	}}}, closers...)
	return rediscache.NewCachedTaskStore(taskStore, cache, logger), closers, nil
}

// closeAll runs closers in order, logging failures without stopping.
func closeAll(ctx context.Context, closers []closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.close(ctx); err != nil {
			logger.Error("Error closing resource", "resource", c.name, "error", err)
			continue
		}
		logger.Info("Resource closed", "resource", c.name)
	}
}
