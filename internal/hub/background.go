package hub

import (
	"context"
	"ctchen222/tictactoe-solo/internal/events"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const minEvictionInterval = time.Second

// Run evicts idle sessions until ctx is done, then closes the rest.
func (h *Hub) Run(ctx context.Context) {
	defer h.Shutdown(context.WithoutCancel(ctx))

	if h.idleTimeout <= 0 {
		<-ctx.Done()
		return
	}

	interval := max(h.idleTimeout/4, minEvictionInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Idle session eviction started", "idle_timeout", h.idleTimeout, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Hub run loop stopping.")
			return
		case now := <-ticker.C:
			h.EvictIdle(ctx, now)
		}
	}
}

// EvictIdle closes every session not touched within the idle timeout before now.
// It returns how many sessions were closed.
func (h *Hub) EvictIdle(ctx context.Context, now time.Time) int {
	ctx, span := tracer.Start(ctx, "hub.EvictIdle")
	defer span.End()

	cutoff := now.Add(-h.idleTimeout)
	h.mu.RLock()
	var idle []string
	for id, s := range h.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	h.mu.RUnlock()

	evicted := 0
	for _, id := range idle {
		err := h.CloseSession(ctx, id, events.ReasonIdle)
		switch {
		case err == nil:
			evicted++
		case errors.Is(err, ErrSessionNotFound):
		default:
			slog.ErrorContext(ctx, "failed to evict idle session", "session.id", id, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to evict idle session")
		}
	}
	span.SetAttributes(attribute.Int("sessions.evicted", evicted))
	if evicted > 0 {
		slog.InfoContext(ctx, "Evicted idle sessions", "count", evicted)
	}
	return evicted
}
