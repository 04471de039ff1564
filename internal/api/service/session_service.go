package service

import (
	"context"
	"ctchen222/tictactoe-solo/internal/api/models"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/events"
	"ctchen222/tictactoe-solo/internal/hub"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/pkg/proto"
	"fmt"
)

// SessionService defines the session operations exposed over HTTP.
type SessionService interface {
	Create(ctx context.Context, difficulty string) (*models.CreateSessionResponse, error)
	Get(ctx context.Context, id string) (*proto.GameState, error)
	Move(ctx context.Context, id string, index int) (*models.MoveResponse, error)
	Reset(ctx context.Context, id string) (*proto.GameState, error)
	SetDifficulty(ctx context.Context, id, difficulty string) (*proto.GameState, error)
	End(ctx context.Context, id string) error
}

type sessionService struct {
	hub    *hub.Hub
	tokens TokenService
}

// NewSessionService creates a new SessionService.
func NewSessionService(h *hub.Hub, tokens TokenService) SessionService {
	return &sessionService{hub: h, tokens: tokens}
}

// Create starts a session and issues its token.
func (s *sessionService) Create(ctx context.Context, difficulty string) (*models.CreateSessionResponse, error) {
	level := bot.DefaultDifficulty
	if difficulty != "" {
		var err error
		if level, err = bot.ParseDifficulty(difficulty); err != nil {
			return nil, err
		}
	}

	sess := s.hub.CreateSession(ctx, level)
	token, err := s.tokens.Issue(sess.ID)
	if err != nil {
		if closeErr := s.hub.CloseSession(ctx, sess.ID, events.ReasonEnded); closeErr != nil {
			err = fmt.Errorf("%w (cleanup: %v)", err, closeErr)
		}
		return nil, err
	}

	st, err := sess.State(ctx)
	if err != nil {
		return nil, err
	}
	return &models.CreateSessionResponse{
		SessionID: sess.ID,
		Token:     token,
		State:     proto.NewGameState(st),
	}, nil
}

// Get returns the session's current state.
func (s *sessionService) Get(ctx context.Context, id string) (*proto.GameState, error) {
	return s.withSession(ctx, id, func(sess *session.Session) (session.State, error) {
		return sess.State(ctx)
	})
}

// Move applies a human move. A refused move is not an error.
func (s *sessionService) Move(ctx context.Context, id string, index int) (*models.MoveResponse, error) {
	sess, err := s.hub.Session(id)
	if err != nil {
		return nil, err
	}
	accepted, st, err := sess.ApplyHumanMove(ctx, index)
	if err != nil {
		return nil, err
	}
	return &models.MoveResponse{Accepted: accepted, State: proto.NewGameState(st)}, nil
}

// Reset starts a new game in the session.
func (s *sessionService) Reset(ctx context.Context, id string) (*proto.GameState, error) {
	return s.withSession(ctx, id, func(sess *session.Session) (session.State, error) {
		return sess.Reset(ctx)
	})
}

// SetDifficulty changes the difficulty, which also starts a new game.
func (s *sessionService) SetDifficulty(ctx context.Context, id, difficulty string) (*proto.GameState, error) {
	level, err := bot.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	return s.withSession(ctx, id, func(sess *session.Session) (session.State, error) {
		return sess.SetDifficulty(ctx, level)
	})
}

// End closes the session.
func (s *sessionService) End(ctx context.Context, id string) error {
	return s.hub.CloseSession(ctx, id, events.ReasonEnded)
}

func (s *sessionService) withSession(ctx context.Context, id string, fn func(*session.Session) (session.State, error)) (*proto.GameState, error) {
	sess, err := s.hub.Session(id)
	if err != nil {
		return nil, err
	}
	st, err := fn(sess)
	if err != nil {
		return nil, err
	}
	return proto.NewGameState(st), nil
}
