package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
)

// DefaultComputerMoveDelay is how long the computer waits before answering a human move.
const DefaultComputerMoveDelay = 500 * time.Millisecond

var tracer = otel.Tracer("session")

// ErrClosed is returned by every operation on a session that has been closed.
var ErrClosed = errors.New("session closed")

type moveResult struct {
	accepted bool
	state    State
}

type humanMoveEvent struct {
	ctx   context.Context
	index int
	reply chan moveResult
}

type resetEvent struct {
	ctx   context.Context
	reply chan State
}

type difficultyEvent struct {
	ctx        context.Context
	difficulty bot.Difficulty
	reply      chan State
}

type snapshotEvent struct {
	reply chan State
}

// Session is one human-versus-computer game. All mutation happens on the
// goroutine started by Start; the exported methods talk to it over channels.
type Session struct {
	ID             string
	notifier       Notifier
	moveCalculator MoveCalculator
	moveDelay      time.Duration

	events    chan any
	done      chan struct{}
	closeOnce sync.Once
	lastSeen  atomic.Int64

	// Owned by the run goroutine.
	game       game.State
	difficulty bot.Difficulty
	generation uint64
	seq        uint64
	lastMove   int
	moveTimer  *time.Timer
	pendingGen uint64
}

// NewSession creates a session with an empty board and X to move.
// A non-positive delay falls back to DefaultComputerMoveDelay and an
// invalid difficulty to bot.DefaultDifficulty.
func NewSession(id string, calculator MoveCalculator, notifier Notifier, delay time.Duration, difficulty bot.Difficulty) *Session {
	if delay <= 0 {
		delay = DefaultComputerMoveDelay
	}
	if !difficulty.Valid() {
		difficulty = bot.DefaultDifficulty
	}
	s := &Session{
		ID:             id,
		notifier:       notifier,
		moveCalculator: calculator,
		moveDelay:      delay,
		events:         make(chan any),
		done:           make(chan struct{}),
		game:           game.New(),
		difficulty:     difficulty,
		lastMove:       NoMove,
	}
	s.touch()
	return s
}

// Start launches the session's event loop.
func (s *Session) Start() {
	go s.run()
}

// Close stops the event loop and cancels any scheduled computer move.
// It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LastSeen reports the last time a caller interacted with the session.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// State returns a snapshot of the session.
func (s *Session) State(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if err := s.send(ctx, snapshotEvent{reply: reply}); err != nil {
		return State{}, err
	}
	return await(ctx, s.done, reply)
}

// ApplyHumanMove places X at index. A move that the board refuses is
// reported with accepted=false and leaves the session untouched.
func (s *Session) ApplyHumanMove(ctx context.Context, index int) (bool, State, error) {
	s.touch()
	reply := make(chan moveResult, 1)
	if err := s.send(ctx, humanMoveEvent{ctx: ctx, index: index, reply: reply}); err != nil {
		return false, State{}, err
	}
	res, err := await(ctx, s.done, reply)
	if err != nil {
		return false, State{}, err
	}
	return res.accepted, res.state, nil
}

// Reset clears the board and discards any scheduled computer move.
func (s *Session) Reset(ctx context.Context) (State, error) {
	s.touch()
	reply := make(chan State, 1)
	if err := s.send(ctx, resetEvent{ctx: ctx, reply: reply}); err != nil {
		return State{}, err
	}
	return await(ctx, s.done, reply)
}

// SetDifficulty switches the computer's strategy and always starts a new game.
func (s *Session) SetDifficulty(ctx context.Context, difficulty bot.Difficulty) (State, error) {
	if !difficulty.Valid() {
		return State{}, bot.ErrUnknownDifficulty
	}
	s.touch()
	reply := make(chan State, 1)
	if err := s.send(ctx, difficultyEvent{ctx: ctx, difficulty: difficulty, reply: reply}); err != nil {
		return State{}, err
	}
	return await(ctx, s.done, reply)
}

func (s *Session) send(ctx context.Context, ev any) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, done <-chan struct{}, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// run is the session's event loop.
func (s *Session) run() {
	defer s.cancelComputerMove()

	for {
		var timerC <-chan time.Time
		if s.moveTimer != nil {
			timerC = s.moveTimer.C
		}

		select {
		case <-s.done:
			slog.Debug("Session run goroutine stopping.", "session.id", s.ID)
			return

		case ev := <-s.events:
			s.dispatch(ev)

		case <-timerC:
			s.moveTimer = nil
			s.playComputerMove(context.Background(), s.pendingGen)
		}
	}
}

func (s *Session) dispatch(ev any) {
	switch ev := ev.(type) {
	case snapshotEvent:
		ev.reply <- s.snapshot()
	case humanMoveEvent:
		accepted := s.handleHumanMove(ev.ctx, ev.index)
		ev.reply <- moveResult{accepted: accepted, state: s.snapshot()}
	case resetEvent:
		s.handleReset(ev.ctx)
		ev.reply <- s.snapshot()
	case difficultyEvent:
		s.handleSetDifficulty(ev.ctx, ev.difficulty)
		ev.reply <- s.snapshot()
	default:
		slog.Error("unknown session event", "session.id", s.ID, "event", ev)
	}
}

func (s *Session) snapshot() State {
	return State{
		SessionID:  s.ID,
		Board:      s.game.Board,
		Turn:       s.game.Turn,
		Outcome:    s.game.Outcome(),
		Difficulty: s.difficulty,
		Generation: s.generation,
		Seq:        s.seq,
		LastMove:   s.lastMove,
		Pending:    s.moveTimer != nil,
	}
}

func (s *Session) scheduleComputerMove() {
	s.cancelComputerMove()
	s.pendingGen = s.generation
	s.moveTimer = time.NewTimer(s.moveDelay)
}

func (s *Session) cancelComputerMove() {
	if s.moveTimer != nil {
		s.moveTimer.Stop()
		s.moveTimer = nil
	}
}

func (s *Session) publish(ctx context.Context) {
	s.seq++
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, s.snapshot()); err != nil {
		slog.ErrorContext(ctx, "failed to publish session state", "session.id", s.ID, "error", err)
	}
}
