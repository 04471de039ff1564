package session

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
)

// MoveCalculator defines an interface for an agent that can calculate the computer's move.
type MoveCalculator interface {
	CalculateNextMove(board game.Board, difficulty bot.Difficulty) int
}

// Notifier is told about every accepted state change, in order.
type Notifier interface {
	Notify(ctx context.Context, state State) error
}
