// Package main implements the entry point for the TaskFlow API server, which
// serves the task CRUD API over HTTP on top of a PostgreSQL, MongoDB or SQLite
// task store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// main loads configuration, sets up logging and either runs a migration
// command or starts the HTTP server. Any startup failure, including an
// exhausted store connection budget, exits with status 1.
func main() {
	migrateCmd := flag.String("migrate", "", "Run a database migration command: up, down, status or version")
	flag.Parse()

	cfg, log, err := initializeApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *migrateCmd != "" {
		if err := handleMigrations(ctx, cfg, *migrateCmd, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		return
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	os.Exit(app.Run(ctx))
}

// initializeApp loads configuration and sets up the structured logger.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	// Route stray log.Printf output from libraries through slog.
	log.SetFlags(0)
	log.SetOutput(slogWriter{l})

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver,
		"cache_enabled", cfg.Cache.Enabled())

	return cfg, l, nil
}

// slogWriter adapts the standard library logger to slog at INFO.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.log.Info(msg)
	return len(p), nil
}
