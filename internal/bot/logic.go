package bot

import (
	"ctchen222/tictactoe-solo/internal/game"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// Terminal scores from the computer's point of view.
const (
	scoreWin  = 1
	scoreLoss = -1
	scoreDraw = 0
)

// RandomStrategy makes a uniformly random move among the empty cells.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy uses rng when given, otherwise the global source.
func NewRandomStrategy(rng *rand.Rand) *RandomStrategy {
	return &RandomStrategy{rng: rng}
}

func (s *RandomStrategy) SelectMove(board game.Board) int {
	mustBeOngoing(board)

	availableMoves := board.EmptyCells()
	return availableMoves[s.intN(len(availableMoves))]
}

func (s *RandomStrategy) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	// *rand.Rand is not safe for concurrent use.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// MinimaxStrategy searches the full game tree and never loses. Ties go to the
// lowest cell index.
type MinimaxStrategy struct{}

func (MinimaxStrategy) SelectMove(board game.Board) int {
	mustBeOngoing(board)

	bestScore := math.MinInt
	move := -1
	for i := range board {
		if board[i] != game.Empty {
			continue
		}
		board[i] = Mark
		score := minimax(board, false)
		board[i] = game.Empty
		if score > bestScore {
			bestScore = score
			move = i
		}
	}
	return move
}

// minimax scores board for the computer. board is a value copy, so writes in
// one branch never leak into its siblings.
func minimax(board game.Board, maximizing bool) int {
	switch outcome := game.Detect(board); outcome.Result {
	case game.Win:
		if outcome.Winner == Mark {
			return scoreWin
		}
		return scoreLoss
	case game.Draw:
		return scoreDraw
	}

	if maximizing {
		best := math.MinInt
		for i := range board {
			if board[i] == game.Empty {
				next := board
				next[i] = Mark
				best = max(best, minimax(next, false))
			}
		}
		return best
	}

	best := math.MaxInt
	for i := range board {
		if board[i] == game.Empty {
			next := board
			next[i] = Mark.Opponent()
			best = min(best, minimax(next, true))
		}
	}
	return best
}

func mustBeOngoing(board game.Board) {
	if outcome := game.Detect(board); outcome.Terminal() {
		panic(fmt.Sprintf("bot: move requested on finished board %v (%v)", board, outcome.Result))
	}
}
