package broker

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type subscriber struct {
	ch   chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// MemoryBroker is an in-process Broker for single-instance deployments.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

// NewMemoryBroker creates an empty MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers payload to every subscriber of channel without blocking.
// A subscriber whose buffer is full is dropped.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, span := tracer.Start(ctx, "broker.MemoryBroker.Publish", trace.WithAttributes(
		attribute.String("broker.channel", channel),
	))
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	set := b.subs[channel]
	span.SetAttributes(attribute.Int("broker.subscribers", len(set)))
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			b.removeLocked(channel, sub)
			sub.close()
			dropped++
		}
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "dropped slow subscribers", "broker.channel", channel, "count", dropped)
	}
	return nil
}

// Subscribe registers a subscriber for channel.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, ErrClosed
	}

	set := b.subs[channel]
	if set == nil {
		set = make(map[*subscriber]struct{})
		b.subs[channel] = set
	}
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	set[sub] = struct{}{}

	stop := make(chan struct{})
	var stopOnce sync.Once
	unsubscribe := func() {
		stopOnce.Do(func() {
			close(stop)
			b.mu.Lock()
			b.removeLocked(channel, sub)
			sub.close()
			b.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-stop:
		}
	}()
	return sub.ch, unsubscribe, nil
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, set := range b.subs {
		for sub := range set {
			sub.close()
		}
		delete(b.subs, channel)
	}
	return nil
}

func (b *MemoryBroker) removeLocked(channel string, sub *subscriber) {
	set, ok := b.subs[channel]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, channel)
	}
}
