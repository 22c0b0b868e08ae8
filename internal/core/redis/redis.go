package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/shared/logs"

	"github.com/redis/go-redis/v9"
)

// LockTTL bounds how long a crashed worker can hold a lock.
const LockTTL = 300 * time.Second

func Connect(cfg config.Config) (*redis.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetryCount; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})

		err := client.Ping(context.Background()).Err()
		if err == nil {
			logs.Info("connected to Redis", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount)
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logs.Error("failed to connect to Redis", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount, "error", err)
		if attempt < cfg.ConnectRetryCount {
			time.Sleep(cfg.ConnectRetryDelay)
		}
	}
	return nil, fmt.Errorf("connect to Redis after %d attempts: %w", cfg.ConnectRetryCount, lastErr)
}

func Cleanup(ctx context.Context, client *redis.Client) {
	if client == nil {
		return
	}
	_ = client.Close()
}

// SaveJSON stores any JSON-serializable value at the provided key.
func SaveJSON(ctx context.Context, client redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// GetJSON retrieves a JSON value from the provided key and unmarshals it into the target.
// A missing key returns redis.Nil.
func GetJSON(ctx context.Context, client redis.Cmdable, key string, target any) error {
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), target)
}

// AcquireLock takes lockKey for LockTTL. When the lock is held elsewhere it
// returns false and a nil release func.
func AcquireLock(ctx context.Context, client redis.Cmdable, lockKey string) (bool, func(), error) {
	acquired, err := client.SetNX(ctx, lockKey, time.Now().UnixMilli(), LockTTL).Result()
	if err != nil {
		return false, nil, err
	}
	if !acquired {
		return false, nil, nil
	}

	release := func() {
		// the caller's context may already be done
		_ = client.Del(context.Background(), lockKey).Err()
	}
	return true, release, nil
}

func SeasonLockKey(year int) string {
	return "season:process:" + strconv.Itoa(year) + ":lock"
}

func SeasonStatusKey(year int) string {
	return "season:status:" + strconv.Itoa(year)
}

// SeasonStatus records the outcome of the last processing run of a season.
type SeasonStatus struct {
	Year        int    `json:"year"`
	State       string `json:"state"`
	Force       bool   `json:"force"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SeasonStore wraps the season keys kept in Redis.
type SeasonStore struct {
	client redis.Cmdable
}

func NewSeasonStore(client redis.Cmdable) *SeasonStore {
	return &SeasonStore{client: client}
}

func (s *SeasonStore) Lock(ctx context.Context, year int) (bool, func(), error) {
	return AcquireLock(ctx, s.client, SeasonLockKey(year))
}

func (s *SeasonStore) SaveStatus(ctx context.Context, status SeasonStatus) error {
	return SaveJSON(ctx, s.client, SeasonStatusKey(status.Year), status, 0)
}

// Status returns the stored status, or ok=false when none exists.
func (s *SeasonStore) Status(ctx context.Context, year int) (SeasonStatus, bool, error) {
	var status SeasonStatus
	err := GetJSON(ctx, s.client, SeasonStatusKey(year), &status)
	if err == redis.Nil {
		return status, false, nil
	}
	if err != nil {
		return status, false, err
	}
	return status, true, nil
}
