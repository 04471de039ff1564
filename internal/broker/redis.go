package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RedisBroker relays messages through Redis Pub/Sub so that every server
// instance sees a session's updates.
type RedisBroker struct {
	rdb    *redis.Client
	closed atomic.Bool
}

// NewRedisBroker creates a RedisBroker on top of an existing client.
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

// Publish sends payload to channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, span := tracer.Start(ctx, "broker.RedisBroker.Publish", trace.WithAttributes(
		attribute.String("broker.channel", channel),
	))
	defer span.End()

	if b.closed.Load() {
		return ErrClosed
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish to redis")
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Redis subscription on channel and waits for Redis to
// confirm it before returning.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ctx, span := tracer.Start(ctx, "broker.RedisBroker.Subscribe", trace.WithAttributes(
		attribute.String("broker.channel", channel),
	))
	defer span.End()

	if b.closed.Load() {
		return nil, nil, ErrClosed
	}

	pubsub := b.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe to redis")
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					slog.Warn("dropping slow redis subscriber", "broker.channel", channel)
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// Close marks the broker closed. The Redis client is owned by the caller.
func (b *RedisBroker) Close() error {
	b.closed.Store(true)
	return nil
}
