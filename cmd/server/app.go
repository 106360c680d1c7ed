package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore store.TaskStore
	closers   []closer

	eventEmitter *events.InMemoryEventEmitter
	taskService  service.TaskService
}

// newApplication connects the configured task store and builds the service
// layer on top of it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	taskStore, closers, err := setupTaskStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up task store: %w", err)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		taskStore: taskStore,
		closers:   closers,
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.taskService, err = service.NewTaskService(taskStore, app.eventEmitter, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP until a shutdown signal arrives or the listener fails and
// returns the process exit code.
func (app *application) Run(ctx context.Context) int {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup closes the cache and the store connection.
func (app *application) cleanup(ctx context.Context) {
	closeAll(ctx, app.closers, app.logger)
	app.closers = nil
	app.logger.Info("Application shutdown completed")
}
