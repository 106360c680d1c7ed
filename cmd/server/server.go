package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

// startHTTPServer serves router until SIGINT or SIGTERM, then stops accepting
// requests, drains in-flight ones and closes the backends. It returns the
// process exit code.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) int {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		app.config.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"taskflow-api": func(ctx context.Context) error {
				app.logger.Info("Shutting down server...")
				return app.shutdown(ctx, server)
			},
		},
	)

	select {
	case code := <-wait:
		app.logger.Info("Server shutdown completed", "exit_code", code)
		return code
	case err := <-serverErr:
		app.logger.Error("Server failed", "error", err)
		app.cleanup(ctx)
		return 1
	}
}

// shutdown stops the HTTP server first so no request touches a closed store.
func (app *application) shutdown(ctx context.Context, server *http.Server) error {
	err := server.Shutdown(ctx)
	if err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
	}
	app.cleanup(ctx)
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
