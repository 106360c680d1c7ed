package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
)

// handleMigrations runs a goose command against the configured PostgreSQL
// database. The other drivers create their schema when the store opens.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the %s driver, configured driver is %q",
			config.DriverPostgres, cfg.Database.Driver)
	}

	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion:
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	logger.Info("Executing migrations", "command", command)

	db, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, logger)
}
