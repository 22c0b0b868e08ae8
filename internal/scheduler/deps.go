package scheduler

import (
	"log/slog"

	"f1-pitwall/internal/core/config"

	natslib "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	redislib "github.com/redis/go-redis/v9"
)

// Dependencies contains everything a scheduled job may need.
type Dependencies struct {
	Config    config.Config
	NATS      *natslib.Conn
	JSContext jetstream.JetStream
	Redis     *redislib.Client
	Log       *slog.Logger
}
