package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisAddr is used when no connection string is given.
const DefaultRedisAddr = "localhost:6379"

// NewRedisClient creates a Redis client and pings it.
// connString is either a host:port address or a redis:// URL.
func NewRedisClient(ctx context.Context, connString string) (*redis.Client, error) {
	opts, err := redisOptions(connString)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Ping the server to ensure the connection is established.
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

func redisOptions(connString string) (*redis.Options, error) {
	if connString == "" {
		connString = DefaultRedisAddr
	}
	if strings.HasPrefix(connString, "redis://") || strings.HasPrefix(connString, "rediss://") {
		opts, err := redis.ParseURL(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: connString}, nil
}
