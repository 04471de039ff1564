package hub

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/broker"
	"ctchen222/tictactoe-solo/internal/events"
	"ctchen222/tictactoe-solo/internal/session"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("hub")
	meter  = otel.Meter("hub")
)

// ErrSessionNotFound is returned for an unknown or already closed session ID.
var ErrSessionNotFound = errors.New("session not found")

// Hub owns every live session on this instance.
type Hub struct {
	mu             sync.RWMutex
	sessions       map[string]*session.Session
	broker         broker.Broker
	moveCalculator session.MoveCalculator
	moveDelay      time.Duration
	idleTimeout    time.Duration
	active         metric.Int64UpDownCounter
}

// NewHub creates a new hub.
func NewHub(b broker.Broker, calculator session.MoveCalculator, moveDelay, idleTimeout time.Duration) *Hub {
	active, err := meter.Int64UpDownCounter("tictactoe.sessions.active",
		metric.WithDescription("Sessions currently open on this instance"))
	if err != nil {
		otel.Handle(err)
	}
	return &Hub{
		sessions:       make(map[string]*session.Session),
		broker:         b,
		moveCalculator: calculator,
		moveDelay:      moveDelay,
		idleTimeout:    idleTimeout,
		active:         active,
	}
}

// CreateSession starts a new session at the given difficulty.
func (h *Hub) CreateSession(ctx context.Context, difficulty bot.Difficulty) *session.Session {
	id := uuid.New().String()
	ctx, span := tracer.Start(ctx, "hub.CreateSession", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("difficulty", difficulty.String()),
	))
	defer span.End()

	s := session.NewSession(id, h.moveCalculator, &statePublisher{broker: h.broker}, h.moveDelay, difficulty)

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	s.Start()
	h.active.Add(ctx, 1)
	slog.InfoContext(ctx, "Session created.", "session.id", id, "difficulty", difficulty)
	return s
}

// Session looks up a live session.
func (h *Hub) Session(id string) (*session.Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len reports how many sessions are open.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseSession stops a session and tells its viewers why.
func (h *Hub) CloseSession(ctx context.Context, id, reason string) error {
	ctx, span := tracer.Start(ctx, "hub.CloseSession", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("reason", reason),
	))
	defer span.End()

	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	if !ok {
		span.SetStatus(codes.Error, "Session not found")
		return ErrSessionNotFound
	}

	s.Close()
	h.active.Add(ctx, -1)
	slog.InfoContext(ctx, "Session closed.", "session.id", id, "reason", reason)

	event, err := events.Encode(events.TypeSessionClosed, events.SessionClosedPayload{SessionID: id, Reason: reason})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode session_closed event")
		return err
	}
	if err := h.broker.Publish(ctx, events.SessionChannel(id), event); err != nil {
		slog.ErrorContext(ctx, "failed to publish session_closed event", "session.id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish session_closed event")
	}
	return nil
}

// Shutdown closes every session.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if err := h.CloseSession(ctx, id, events.ReasonShutdown); err != nil && !errors.Is(err, ErrSessionNotFound) {
			slog.ErrorContext(ctx, "failed to close session on shutdown", "session.id", id, "error", err)
		}
	}
}
