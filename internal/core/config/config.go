package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenF1BaseURL            string
	OpenF1AuthURL            string
	OpenF1Username           string
	OpenF1Password           string
	OpenF1APIKey             string
	OpenF1RateInterval       time.Duration
	OpenF1MaxRetries         int
	OpenF1MaxThrottleRetries int
	MQTTURL                  string
	MQTTUsername             string
	MQTTTopic                string

	DataDir                string
	CacheBackend           string
	FallbackDriverSessions map[int]int

	MongoURI          string
	MongoDatabase     string
	NATSURL           string
	RedisURL          string
	ConnectRetryCount int
	ConnectRetryDelay time.Duration

	APIPort           string
	APIPublicRate     string
	APIAdminRate      string
	APIComputeTimeout time.Duration
	AdminJWTSecret    string

	SeasonRefreshCron string
	WorkerPoolSize    int

	LiveFrameInterval time.Duration
	LivePlaybackDelay time.Duration
}

func LoadConfig() Config {
	return Config{
		OpenF1BaseURL:            getEnv("OPENF1_BASE_URL", "https://api.openf1.org/v1"),
		OpenF1AuthURL:            getEnv("OPENF1_AUTH_URL", "https://api.openf1.org/token"),
		OpenF1Username:           getEnv("OPENF1_USERNAME", ""),
		OpenF1Password:           getEnv("OPENF1_PASSWORD", ""),
		OpenF1APIKey:             getEnv("OPENF1_API_KEY", ""),
		OpenF1RateInterval:       getDuration("OPENF1_RATE_INTERVAL", 400*time.Millisecond),
		OpenF1MaxRetries:         getInt("OPENF1_MAX_RETRIES", 3),
		OpenF1MaxThrottleRetries: getInt("OPENF1_MAX_THROTTLE_RETRIES", 5),
		MQTTURL:                  getEnv("OPENF1_MQTT_URL", "wss://mqtt.openf1.org:8084/mqtt"),
		MQTTUsername:             getEnv("OPENF1_MQTT_USERNAME", "f1statsnext"),
		MQTTTopic:                getEnv("OPENF1_MQTT_TOPIC", "v1/location"),

		DataDir:                getEnv("DATA_DIR", "data"),
		CacheBackend:           getEnv("CACHE_BACKEND", "file"),
		FallbackDriverSessions: parseYearSessions(getEnv("FALLBACK_DRIVER_SESSIONS", "2025:9662")),

		MongoURI:          getEnv("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "pitwall"),
		NATSURL:           getEnv("NATS_URL", "nats://nats:4222"),
		RedisURL:          getEnv("REDIS_URL", "redis:6379"),
		ConnectRetryCount: getInt("CONNECT_RETRY_COUNT", 5),
		ConnectRetryDelay: getDuration("CONNECT_RETRY_DELAY", 5*time.Second),

		APIPort:           getEnv("API_PORT", "8080"),
		APIPublicRate:     getEnv("API_PUBLIC_RATE", "20-S"),
		APIAdminRate:      getEnv("API_ADMIN_RATE", "30-M"),
		APIComputeTimeout: getDuration("API_COMPUTE_TIMEOUT", 2*time.Minute),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", "dev-admin-secret-change"),

		SeasonRefreshCron: getEnv("SEASON_REFRESH_CRON", "0 6 * * 1"),
		WorkerPoolSize:    getInt("WORKER_POOL_SIZE", 4),

		LiveFrameInterval: getDuration("LIVE_FRAME_INTERVAL", 100*time.Millisecond),
		LivePlaybackDelay: getDuration("LIVE_PLAYBACK_DELAY", 3*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("400ms") or plain milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// parseYearSessions parses "2025:9662,2026:9999" into year -> session key.
func parseYearSessions(raw string) map[int]int {
	out := map[int]int{}
	for _, pair := range strings.Split(raw, ",") {
		year, session, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			continue
		}
		y, err1 := strconv.Atoi(year)
		s, err2 := strconv.Atoi(session)
		if err1 != nil || err2 != nil {
			continue
		}
		out[y] = s
	}
	return out
}
