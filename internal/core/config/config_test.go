package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	require.Equal(t, "https://api.openf1.org/v1", cfg.OpenF1BaseURL)
	require.Equal(t, 400*time.Millisecond, cfg.OpenF1RateInterval)
	require.Equal(t, 3, cfg.OpenF1MaxRetries)
	require.Equal(t, map[int]int{2025: 9662}, cfg.FallbackDriverSessions)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OPENF1_RATE_INTERVAL", "250")
	t.Setenv("OPENF1_MAX_RETRIES", "7")
	t.Setenv("LIVE_PLAYBACK_DELAY", "5s")
	t.Setenv("FALLBACK_DRIVER_SESSIONS", "2025:9662, 2026:10001,bogus")

	cfg := LoadConfig()
	require.Equal(t, 250*time.Millisecond, cfg.OpenF1RateInterval)
	require.Equal(t, 7, cfg.OpenF1MaxRetries)
	require.Equal(t, 5*time.Second, cfg.LivePlaybackDelay)
	require.Equal(t, map[int]int{2025: 9662, 2026: 10001}, cfg.FallbackDriverSessions)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "many")
	t.Setenv("API_COMPUTE_TIMEOUT", "soon")
	cfg := LoadConfig()
	require.Equal(t, 4, cfg.WorkerPoolSize)
	require.Equal(t, 2*time.Minute, cfg.APIComputeTimeout)
}
