package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	StorageBackend string
	DataFile       string
	RedisURL       string
	DatabaseURL    string

	DiscordToken      string
	DiscordAPIBaseURL string
	WebhookSecret     string
	CommandPrefix     string

	SweepInterval  time.Duration
	InactivityDays int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		StorageBackend:    getEnv("STORAGE_BACKEND", BackendFile),
		DataFile:          getEnv("DATA_FILE", "data/streaks.json"),
		RedisURL:          getEnv("REDIS_URL", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DiscordToken:      getEnv("DISCORD_TOKEN", ""),
		DiscordAPIBaseURL: getEnv("DISCORD_API_BASE_URL", "https://discord.com/api/v10"),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		CommandPrefix:     getEnv("COMMAND_PREFIX", "!"),
	}

	switch cfg.StorageBackend {
	case BackendFile:
		if cfg.DataFile == "" {
			return nil, fmt.Errorf("DATA_FILE is required when STORAGE_BACKEND is file")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND is redis")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be one of file, redis, postgres (got %q)", cfg.StorageBackend)
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	sweepInterval, err := getEnvDuration("SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	if sweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	cfg.SweepInterval = sweepInterval

	inactivityDays, err := getEnvInt("INACTIVITY_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if inactivityDays <= 0 {
		return nil, fmt.Errorf("INACTIVITY_DAYS must be positive")
	}
	cfg.InactivityDays = inactivityDays

	if len(cfg.WebhookSecret) > 0 && (len(cfg.WebhookSecret) < 10 || len(cfg.WebhookSecret) > 100) {
		return nil, fmt.Errorf("WEBHOOK_SECRET must be between 10 and 100 characters")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
