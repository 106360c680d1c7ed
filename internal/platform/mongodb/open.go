package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/connect"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect creates a client for cfg.URL and pings the primary, retrying
// according to the configured connect policy.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	policy := connect.Policy{Attempts: cfg.ConnectAttempts, Backoff: cfg.ConnectBackoff}
	err = connect.WithRetry(ctx, "mongo", policy, log, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// clientOptions maps the pool settings onto the driver. The driver has no
// per-connection lifetime cap, so ConnMaxLifetime is not used here.
func clientOptions(cfg config.DatabaseConfig) *options.ClientOptions {
	return options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetMaxConnIdleTime(cfg.ConnMaxIdleTime)
}

// Disconnect closes client and logs the outcome.
func Disconnect(ctx context.Context, client *mongo.Client, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Error("failed to disconnect from mongo", slog.String("error", err.Error()))
		return err
	}
	log.Info("disconnected from mongo")
	return nil
}
