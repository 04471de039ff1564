package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// handleHumanMove applies X at index and, if the game goes on, schedules the reply.
func (s *Session) handleHumanMove(ctx context.Context, index int) bool {
	ctx, span := tracer.Start(ctx, "session.handleHumanMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	next, err := s.game.Apply(index, game.PlayerX)
	if err != nil {
		slog.DebugContext(ctx, "rejected move", "session.id", s.ID, "index", index, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		rejectedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", err.Error())))
		return false
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.game = next
	s.lastMove = index
	movesCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("player", game.PlayerX.String()),
		attribute.String("difficulty", s.difficulty.String()),
	))

	if outcome := next.Outcome(); outcome.Terminal() {
		s.recordFinished(ctx, outcome)
	} else {
		s.scheduleComputerMove()
	}

	s.publish(ctx)
	return true
}

// playComputerMove answers the human once the delay elapses. A move scheduled
// for an earlier generation is dropped.
func (s *Session) playComputerMove(ctx context.Context, generation uint64) {
	ctx, span := tracer.Start(ctx, "session.playComputerMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("difficulty", s.difficulty.String()),
	))
	defer span.End()

	if generation != s.generation {
		slog.DebugContext(ctx, "discarding stale computer move", "session.id", s.ID, "generation", generation)
		span.SetAttributes(attribute.Bool("move.stale", true))
		return
	}
	if s.game.Turn != bot.Mark || s.game.Outcome().Terminal() {
		return
	}

	start := time.Now()
	index := s.moveCalculator.CalculateNextMove(s.game.Board, s.difficulty)
	thinkDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(attribute.String("difficulty", s.difficulty.String())))

	next, err := s.game.Apply(index, bot.Mark)
	if err != nil {
		slog.ErrorContext(ctx, "computer chose an illegal move", "session.id", s.ID, "index", index, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer chose an illegal move")
		return
	}
	span.SetAttributes(attribute.Int("move.index", index))

	s.game = next
	s.lastMove = index
	movesCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("player", bot.Mark.String()),
		attribute.String("difficulty", s.difficulty.String()),
	))
	if outcome := next.Outcome(); outcome.Terminal() {
		s.recordFinished(ctx, outcome)
	}

	s.publish(ctx)
}

// handleReset starts a new game with the current difficulty.
func (s *Session) handleReset(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.handleReset", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.newGame()
	slog.InfoContext(ctx, "Session reset.", "session.id", s.ID, "generation", s.generation)
	s.publish(ctx)
}

// handleSetDifficulty switches strategy and starts a new game, even when the
// difficulty is unchanged.
func (s *Session) handleSetDifficulty(ctx context.Context, difficulty bot.Difficulty) {
	ctx, span := tracer.Start(ctx, "session.handleSetDifficulty", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("difficulty", difficulty.String()),
	))
	defer span.End()

	s.difficulty = difficulty
	s.newGame()
	slog.InfoContext(ctx, "Session difficulty changed.", "session.id", s.ID, "difficulty", difficulty)
	s.publish(ctx)
}

func (s *Session) newGame() {
	s.cancelComputerMove()
	s.generation++
	s.game = game.New()
	s.lastMove = NoMove
}

func (s *Session) recordFinished(ctx context.Context, outcome game.Outcome) {
	slog.InfoContext(ctx, "Game finished.", "session.id", s.ID, "result", outcome.Result, "winner", outcome.Winner)
	finishedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", outcome.Result.String()),
		attribute.String("winner", outcome.Winner.String()),
		attribute.String("difficulty", s.difficulty.String()),
	))
}
