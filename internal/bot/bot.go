package bot

import (
	"ctchen222/tictactoe-solo/internal/game"
	"errors"
	"strings"
)

// Difficulty selects the computer's strategy.
type Difficulty string

const (
	Easy Difficulty = "easy"
	Hard Difficulty = "hard"

	DefaultDifficulty = Easy
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts "easy" or "hard" in any letter case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, nil
	case Hard:
		return Hard, nil
	default:
		return "", ErrUnknownDifficulty
	}
}

func (d Difficulty) Valid() bool {
	return d == Easy || d == Hard
}

func (d Difficulty) String() string {
	return string(d)
}

// Mark is the computer's mark. The human always plays X and moves first.
const Mark = game.PlayerO

// Strategy picks the computer's next cell. Callers guarantee the board is
// Ongoing and has at least one empty cell.
type Strategy interface {
	SelectMove(board game.Board) int
}

// BotMoveCalculator maps a difficulty to its strategy.
type BotMoveCalculator struct {
	easy Strategy
	hard Strategy
}

// NewBotMoveCalculator builds a calculator using the package strategies.
func NewBotMoveCalculator() *BotMoveCalculator {
	return &BotMoveCalculator{
		easy: NewRandomStrategy(nil),
		hard: MinimaxStrategy{},
	}
}

// NewBotMoveCalculatorWith lets tests substitute strategies.
func NewBotMoveCalculatorWith(easy, hard Strategy) *BotMoveCalculator {
	return &BotMoveCalculator{easy: easy, hard: hard}
}

// CalculateNextMove returns the computer's cell for the given difficulty.
// Unknown difficulties fall back to hard.
func (c *BotMoveCalculator) CalculateNextMove(board game.Board, difficulty Difficulty) int {
	switch difficulty {
	case Easy:
		return c.easy.SelectMove(board)
	default:
		return c.hard.SelectMove(board)
	}
}
