package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds the server settings read from the environment.
type Config struct {
	HTTPAddr           string
	WebDir             string
	RedisConnString    string
	OtelCollectorAddr  string
	ComputerMoveDelay  time.Duration
	SessionIdleTimeout time.Duration
	SessionTokenSecret []byte
	SessionTokenTTL    time.Duration
	LogLevel           slog.Level
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads the configuration from environment variables, using defaults for
// anything unset.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		HTTPAddr:          stringOr(getenv("HTTP_ADDR"), ":8080"),
		WebDir:            stringOr(getenv("WEB_DIR"), "./web"),
		RedisConnString:   getenv("REDIS_CONNSTRING"),
		OtelCollectorAddr: getenv("OTEL_COLLECTOR_ADDR"),
	}

	var err error
	if cfg.ComputerMoveDelay, err = durationOr(getenv, "COMPUTER_MOVE_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ComputerMoveDelay <= 0 {
		return nil, fmt.Errorf("%w: COMPUTER_MOVE_DELAY must be positive, got %s", ErrInvalidConfig, cfg.ComputerMoveDelay)
	}
	if cfg.SessionIdleTimeout, err = durationOr(getenv, "SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTokenTTL, err = durationOr(getenv, "SESSION_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTokenTTL <= 0 {
		return nil, fmt.Errorf("%w: SESSION_TOKEN_TTL must be positive, got %s", ErrInvalidConfig, cfg.SessionTokenTTL)
	}
	if secret := getenv("SESSION_TOKEN_SECRET"); secret != "" {
		cfg.SessionTokenSecret = []byte(secret)
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
		}
	}

	return cfg, nil
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func durationOr(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	value := getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return d, nil
}
