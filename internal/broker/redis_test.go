package broker

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(connString)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	b := NewRedisBroker(newRedisClient(t))
	defer b.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch, unsubscribe, err := b.Subscribe(ctx, "channel:session:a")
	require.NoError(t, err)
	other, unsubOther, err := b.Subscribe(ctx, "channel:session:b")
	require.NoError(t, err)
	defer unsubOther()

	require.NoError(t, b.Publish(ctx, "channel:session:a", []byte(`{"event":"state"}`)))
	assert.JSONEq(t, `{"event":"state"}`, string(receive(t, ch)))
	assert.Empty(t, other)

	unsubscribe()
	assertClosed(t, ch)
}

func TestRedisBroker_Closed(t *testing.T) {
	b := NewRedisBroker(newRedisClient(t))
	require.NoError(t, b.Close())

	ctx := context.Background()
	assert.ErrorIs(t, b.Publish(ctx, "c", nil), ErrClosed)
	_, _, err := b.Subscribe(ctx, "c")
	assert.ErrorIs(t, err, ErrClosed)
}
