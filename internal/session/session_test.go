package session_test

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/internal/session/mocks"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	states chan session.State
}

func newRecorder() *recorder {
	return &recorder{states: make(chan session.State, 64)}
}

func (r *recorder) Notify(_ context.Context, state session.State) error {
	r.states <- state
	return nil
}

func (r *recorder) next(t *testing.T) session.State {
	t.Helper()
	select {
	case s := <-r.states:
		return s
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for a state notification")
		return session.State{}
	}
}

func (r *recorder) assertQuiet(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case s := <-r.states:
		assert.Failf(t, "unexpected notification", "board %v generation %d", s.Board, s.Generation)
	case <-time.After(wait):
	}
}

// scripted replays a fixed list of computer moves.
type scripted struct {
	mu    sync.Mutex
	moves []int
}

func (c *scripted) CalculateNextMove(game.Board, bot.Difficulty) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.moves[0]
	c.moves = c.moves[1:]
	return m
}

func startSession(t *testing.T, calc session.MoveCalculator, n session.Notifier, delay time.Duration, d bot.Difficulty) *session.Session {
	t.Helper()
	s := session.NewSession("s-1", calc, n, delay, d)
	s.Start()
	t.Cleanup(s.Close)
	return s
}

func TestNewSession_Defaults(t *testing.T) {
	s := startSession(t, &scripted{}, nil, 0, bot.Difficulty("medium"))

	st, err := s.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s-1", st.SessionID)
	assert.Equal(t, game.Board{}, st.Board)
	assert.Equal(t, game.PlayerX, st.Turn)
	assert.Equal(t, game.Ongoing, st.Outcome.Result)
	assert.Equal(t, bot.Easy, st.Difficulty)
	assert.Equal(t, session.NoMove, st.LastMove)
	assert.False(t, st.Pending)
	assert.Equal(t, "Your turn (X)", st.Status())
}

func TestSession_ComputerRepliesAfterDelay(t *testing.T) {
	ctrl := gomock.NewController(t)
	calc := mocks.NewMockMoveCalculator(ctrl)
	calc.EXPECT().CalculateNextMove(gomock.Any(), bot.Easy).Return(0).Times(1)
	rec := newRecorder()
	s := startSession(t, calc, rec, 30*time.Millisecond, bot.Easy)

	accepted, st, err := s.ApplyHumanMove(context.Background(), 4)
	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, game.PlayerX, st.Board[4])
	assert.Equal(t, game.PlayerO, st.Turn)
	assert.Equal(t, 4, st.LastMove)
	assert.True(t, st.Pending)
	assert.Equal(t, "Computer's turn (O)", st.Status())

	assert.Equal(t, st, rec.next(t))

	reply := rec.next(t)
	assert.Equal(t, game.PlayerO, reply.Board[0])
	assert.Equal(t, game.PlayerX, reply.Board[4])
	assert.Equal(t, game.PlayerX, reply.Turn)
	assert.Equal(t, 0, reply.LastMove)
	assert.False(t, reply.Pending)
	assert.Equal(t, "Your turn (X)", reply.Status())
}

func TestSession_RejectedMovesPublishNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	calc := mocks.NewMockMoveCalculator(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s := startSession(t, calc, notifier, time.Hour, bot.Hard)
	ctx := context.Background()

	accepted, before, err := s.ApplyHumanMove(ctx, 4)
	require.NoError(t, err)
	require.True(t, accepted)

	for _, index := range []int{0, 4, 9, -1} {
		accepted, after, err := s.ApplyHumanMove(ctx, index)
		require.NoError(t, err)
		assert.False(t, accepted, "index %d", index)
		assert.Equal(t, before, after, "index %d", index)
	}
}

func TestSession_ResetDiscardsPendingMove(t *testing.T) {
	ctrl := gomock.NewController(t)
	calc := mocks.NewMockMoveCalculator(ctrl)
	rec := newRecorder()
	s := startSession(t, calc, rec, 50*time.Millisecond, bot.Easy)
	ctx := context.Background()

	_, _, err := s.ApplyHumanMove(ctx, 4)
	require.NoError(t, err)
	st, err := s.Reset(ctx)
	require.NoError(t, err)

	assert.Equal(t, game.Board{}, st.Board)
	assert.Equal(t, game.PlayerX, st.Turn)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, session.NoMove, st.LastMove)
	assert.False(t, st.Pending)

	rec.next(t)
	assert.Equal(t, st, rec.next(t))
	rec.assertQuiet(t, 150*time.Millisecond)

	st, err = s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Board{}, st.Board)
}

func TestSession_SetDifficultyAlwaysResets(t *testing.T) {
	rec := newRecorder()
	s := startSession(t, &scripted{}, rec, time.Hour, bot.Easy)
	ctx := context.Background()

	_, _, err := s.ApplyHumanMove(ctx, 0)
	require.NoError(t, err)

	st, err := s.SetDifficulty(ctx, bot.Hard)
	require.NoError(t, err)
	assert.Equal(t, bot.Hard, st.Difficulty)
	assert.Equal(t, game.Board{}, st.Board)
	assert.Equal(t, uint64(1), st.Generation)
	assert.False(t, st.Pending)

	st, err = s.SetDifficulty(ctx, bot.Hard)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Generation)

	_, err = s.SetDifficulty(ctx, bot.Difficulty("medium"))
	assert.ErrorIs(t, err, bot.ErrUnknownDifficulty)

	st, err = s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, bot.Hard, st.Difficulty)
	assert.Equal(t, uint64(2), st.Generation)
}

func TestSession_ResetAfterWin(t *testing.T) {
	rec := newRecorder()
	s := startSession(t, &scripted{moves: []int{3, 4}}, rec, 5*time.Millisecond, bot.Easy)
	ctx := context.Background()

	for _, index := range []int{0, 1} {
		accepted, _, err := s.ApplyHumanMove(ctx, index)
		require.NoError(t, err)
		require.True(t, accepted)
		rec.next(t)
		reply := rec.next(t)
		require.Equal(t, game.PlayerX, reply.Turn)
	}

	accepted, st, err := s.ApplyHumanMove(ctx, 2)
	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, game.Win, st.Outcome.Result)
	assert.Equal(t, game.PlayerX, st.Outcome.Winner)
	assert.Equal(t, game.Line{0, 1, 2}, st.Outcome.Line)
	assert.False(t, st.Pending)
	assert.Equal(t, "Winner: X", st.Status())
	rec.next(t)

	accepted, _, err = s.ApplyHumanMove(ctx, 5)
	require.NoError(t, err)
	assert.False(t, accepted)
	rec.assertQuiet(t, 30*time.Millisecond)

	st, err = s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Board{}, st.Board)
	assert.Equal(t, game.PlayerX, st.Turn)
	assert.Equal(t, game.Ongoing, st.Outcome.Result)
}

func TestSession_HardNeverLoses(t *testing.T) {
	rec := newRecorder()
	s := startSession(t, bot.NewBotMoveCalculator(), rec, time.Millisecond, bot.Hard)
	ctx := context.Background()

	st, err := s.State(ctx)
	require.NoError(t, err)
	for !st.Outcome.Terminal() {
		empty := st.Board.EmptyCells()
		require.NotEmpty(t, empty)
		accepted, moved, err := s.ApplyHumanMove(ctx, empty[0])
		require.NoError(t, err)
		require.True(t, accepted)
		rec.next(t)
		st = moved
		if !moved.Outcome.Terminal() {
			st = rec.next(t)
		}
	}
	assert.NotEqual(t, game.PlayerX, st.Outcome.Winner)
}

func TestSession_Closed(t *testing.T) {
	s := startSession(t, &scripted{}, nil, time.Hour, bot.Easy)
	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}

	ctx := context.Background()
	_, err := s.State(ctx)
	assert.ErrorIs(t, err, session.ErrClosed)
	_, _, err = s.ApplyHumanMove(ctx, 0)
	assert.ErrorIs(t, err, session.ErrClosed)
	_, err = s.Reset(ctx)
	assert.ErrorIs(t, err, session.ErrClosed)
	_, err = s.SetDifficulty(ctx, bot.Hard)
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestSession_ContextCanceled(t *testing.T) {
	// Never started, so nothing drains the event channel.
	s := session.NewSession("idle", &scripted{}, nil, time.Hour, bot.Easy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.State(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_LastSeen(t *testing.T) {
	s := startSession(t, &scripted{}, nil, time.Hour, bot.Easy)
	before := s.LastSeen()
	time.Sleep(5 * time.Millisecond)

	_, err := s.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, s.LastSeen().After(before))
}

func TestStateStatus(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  string
	}{
		{"human to move", session.State{Turn: game.PlayerX}, "Your turn (X)"},
		{"computer to move", session.State{Turn: game.PlayerO}, "Computer's turn (O)"},
		{"computer won", session.State{Outcome: game.Outcome{Result: game.Win, Winner: game.PlayerO}}, "Winner: O"},
		{"draw", session.State{Outcome: game.Outcome{Result: game.Draw}}, "Draw!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Status())
		})
	}
}
