package hub

import (
	"context"
	"ctchen222/tictactoe-solo/internal/broker"
	"ctchen222/tictactoe-solo/internal/events"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/pkg/proto"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// statePublisher is the session.Notifier that puts every state change on the
// session's broker channel.
type statePublisher struct {
	broker broker.Broker
}

func (p *statePublisher) Notify(ctx context.Context, st session.State) error {
	ctx, span := tracer.Start(ctx, "hub.publishState", trace.WithAttributes(
		attribute.String("session.id", st.SessionID),
		attribute.Int64("session.seq", int64(st.Seq)),
	))
	defer span.End()

	event, err := events.Encode(events.TypeState, proto.NewStateMessage(st))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode state event")
		return err
	}
	if err := p.broker.Publish(ctx, events.SessionChannel(st.SessionID), event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish state event")
		return err
	}
	return nil
}

// Watch subscribes to a session's events. The returned channel closes when
// the subscription ends; call stop to end it early.
func (h *Hub) Watch(ctx context.Context, id string) (<-chan events.Event, func(), error) {
	if _, err := h.Session(id); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	raw, unsubscribe, err := h.broker.Subscribe(ctx, events.SessionChannel(id))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	stop := func() {
		cancel()
		unsubscribe()
	}

	out := make(chan events.Event)
	go func() {
		defer close(out)
		for msg := range raw {
			event, err := events.Decode(msg)
			if err != nil {
				slog.ErrorContext(ctx, "Could not decode session event", "session.id", id, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				unsubscribe()
				return
			}
		}
	}()
	return out, stop, nil
}
