package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string
	LogFile   string
	// Today freezes the scheduling clock (YYYY-MM-DD). Empty means the
	// system date.
	Today string

	// Database
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis. Empty disables the distributed batch lock.
	RedisURL     string
	LockTTL      time.Duration
	LockMaxWait  time.Duration
	LockRetryGap time.Duration

	// RabbitMQ. Empty makes the worker use a no-op publisher.
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Circuit breaker in front of the broker
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Transports
	HTTPAddr         string
	WorkerHealthAddr string
	MCPAddr          string
	MCPAuthToken     string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	driver := getEnv("DATABASE_DRIVER", "")
	if driver == "" {
		driver = "sqlite"
		if databaseURL != "" {
			driver = "postgres"
		}
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),
		Today:     getEnv("ALLOT_TODAY", ""),

		DatabaseURL:    databaseURL,
		DatabaseDriver: driver,
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		LocalMode:      driver == "sqlite",

		RedisURL:     getEnv("REDIS_URL", ""),
		LockTTL:      getDurationEnv("LOCK_TTL", 30*time.Second),
		LockMaxWait:  getDurationEnv("LOCK_MAX_WAIT", 10*time.Second),
		LockRetryGap: getDurationEnv("LOCK_RETRY_BACKOFF", 50*time.Millisecond),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		BreakerMaxFailures: uint32(getIntEnv("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getDurationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		HTTPAddr:         getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "127.0.0.1:8081"),
		MCPAddr:          getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// OutboxRetention is the age after which published events are purged.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
