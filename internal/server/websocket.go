package server

import (
	"context"
	"ctchen222/tictactoe-solo/internal/api/controller"
	"ctchen222/tictactoe-solo/internal/api/response"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/events"
	"ctchen222/tictactoe-solo/internal/player"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/internal/validator"
	"ctchen222/tictactoe-solo/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 3 * heartbeatInterval
	maxMessageSize    = 512
)

// handleWebSocket upgrades the connection, sends the current state and then
// relays the session's events to the client while feeding its messages to
// the session.
func (s *Server) handleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	sess, err := s.hub.Session(sessionID)
	if err != nil {
		response.ErrorResponse(c, controller.StatusFor(err), err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "session.id", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	p := player.NewPlayer(uuid.New().String(), sessionID, conn)
	span.SetAttributes(attribute.String("player.id", p.ID))
	defer p.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watch, stop, err := s.hub.Watch(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "Could not watch session", "session.id", sessionID, "error", err)
		p.SendJSON(proto.NewClosedMessage(events.ReasonEnded))
		return
	}
	defer stop()

	st, err := sess.State(ctx)
	if err != nil {
		p.SendJSON(proto.NewClosedMessage(events.ReasonEnded))
		return
	}
	if err := p.SendJSON(proto.NewStateMessage(st)); err != nil {
		span.RecordError(err)
		return
	}

	slog.InfoContext(ctx, "Player connected", "player.id", p.ID, "session.id", sessionID)
	go s.writePump(ctx, cancel, p, watch, st.Seq)
	s.readPump(ctx, p, sess)
	slog.InfoContext(ctx, "Player disconnected", "player.id", p.ID, "session.id", sessionID)
}

// writePump forwards session events to the player and keeps the connection
// alive with pings. It is the only writer after the initial state.
func (s *Server) writePump(ctx context.Context, cancel context.CancelFunc, p *player.Player, watch <-chan events.Event, lastSeq uint64) {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		cancel()
		// Unblocks the read pump.
		p.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := p.Ping(); err != nil {
				slog.WarnContext(ctx, "Failed to send ping to player, assuming disconnect", "player.id", p.ID, "error", err)
				return
			}

		case event, ok := <-watch:
			if !ok {
				p.SendJSON(proto.NewClosedMessage(events.ReasonEnded))
				return
			}
			switch event.Type {
			case events.TypeState:
				var seq struct {
					Seq uint64 `json:"seq"`
				}
				if err := json.Unmarshal(event.Payload, &seq); err != nil {
					slog.ErrorContext(ctx, "Could not decode state event", "session.id", p.SessionID, "error", err)
					continue
				}
				if seq.Seq <= lastSeq {
					continue
				}
				lastSeq = seq.Seq
				if err := p.Send(event.Payload); err != nil {
					slog.WarnContext(ctx, "error writing message to player", "player.id", p.ID, "error", err)
					return
				}

			case events.TypeSessionClosed:
				var payload events.SessionClosedPayload
				if err := json.Unmarshal(event.Payload, &payload); err != nil {
					payload.Reason = events.ReasonEnded
				}
				p.SendJSON(proto.NewClosedMessage(payload.Reason))
				return
			}
		}
	}
}

// readPump feeds client messages to the session until the connection fails.
func (s *Server) readPump(ctx context.Context, p *player.Player, sess *session.Session) {
	for {
		_, raw, err := p.Conn.ReadMessage()
		if err != nil {
			slog.DebugContext(ctx, "Player connection error", "player.id", p.ID, "session.id", p.SessionID, "error", err)
			return
		}
		if err := s.handleMessage(ctx, p, sess, raw); err != nil {
			return
		}
	}
}

// handleMessage dispatches one client message. Malformed or invalid messages
// are logged and ignored; only a closed session ends the connection.
func (s *Server) handleMessage(ctx context.Context, p *player.Player, sess *session.Session, raw []byte) error {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", sess.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(raw, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		return nil
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		return nil
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeMove:
		_, _, err = sess.ApplyHumanMove(ctx, *message.Index)
	case proto.TypeReset:
		_, err = sess.Reset(ctx)
	case proto.TypeDifficulty:
		var level bot.Difficulty
		if level, err = bot.ParseDifficulty(message.Difficulty); err == nil {
			_, err = sess.SetDifficulty(ctx, level)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session rejected message")
		if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
			return err
		}
		slog.WarnContext(ctx, "session rejected message", "player.id", p.ID, "error", err)
	}
	return nil
}
