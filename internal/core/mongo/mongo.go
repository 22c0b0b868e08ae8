package mongo

import (
	"context"
	"fmt"
	"time"

	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/shared/logs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client and pings the primary, retrying as configured.
func Connect(cfg config.Config) (*mongo.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetryCount; attempt++ {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectRetryDelay)
			err = client.Ping(ctx, readpref.Primary())
			cancel()
			if err == nil {
				logs.Info("connected to Mongo", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount)
				return client, nil
			}
			_ = client.Disconnect(context.Background())
		}
		lastErr = err
		logs.Error("failed to connect to Mongo", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount, "error", err)
		if attempt < cfg.ConnectRetryCount {
			time.Sleep(cfg.ConnectRetryDelay)
		}
	}
	return nil, fmt.Errorf("connect to Mongo after %d attempts: %w", cfg.ConnectRetryCount, lastErr)
}

func Cleanup(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	_ = client.Disconnect(ctx)
}
