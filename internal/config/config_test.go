package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./web", cfg.WebDir)
	assert.Empty(t, cfg.RedisConnString)
	assert.Empty(t, cfg.OtelCollectorAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.ComputerMoveDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTokenTTL)
	assert.Nil(t, cfg.SessionTokenSecret)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"HTTP_ADDR":            "127.0.0.1:9000",
		"WEB_DIR":              "/srv/web",
		"REDIS_CONNSTRING":     "redis:6379",
		"OTEL_COLLECTOR_ADDR":  "otel-collector:4317",
		"COMPUTER_MOVE_DELAY":  "250ms",
		"SESSION_IDLE_TIMEOUT": "5m",
		"SESSION_TOKEN_SECRET": "s3cret",
		"SESSION_TOKEN_TTL":    "1h",
		"LOG_LEVEL":            "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "/srv/web", cfg.WebDir)
	assert.Equal(t, "redis:6379", cfg.RedisConnString)
	assert.Equal(t, "otel-collector:4317", cfg.OtelCollectorAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.ComputerMoveDelay)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, []byte("s3cret"), cfg.SessionTokenSecret)
	assert.Equal(t, time.Hour, cfg.SessionTokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unparseable delay", map[string]string{"COMPUTER_MOVE_DELAY": "soon"}},
		{"zero delay", map[string]string{"COMPUTER_MOVE_DELAY": "0s"}},
		{"negative delay", map[string]string{"COMPUTER_MOVE_DELAY": "-1s"}},
		{"unparseable idle timeout", map[string]string{"SESSION_IDLE_TIMEOUT": "forever"}},
		{"zero token ttl", map[string]string{"SESSION_TOKEN_TTL": "0"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(env(tt.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}
