package session

import (
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"fmt"
)

// NoMove marks a board on which nobody has moved yet.
const NoMove = -1

// State is a read-only snapshot of a session.
type State struct {
	SessionID  string
	Board      game.Board
	Turn       game.Mark
	Outcome    game.Outcome
	Difficulty bot.Difficulty
	Generation uint64
	// Seq increases with every published change.
	Seq      uint64
	LastMove int
	Pending    bool
}

// Status is the line shown above the board.
func (s State) Status() string {
	switch s.Outcome.Result {
	case game.Win:
		return fmt.Sprintf("Winner: %s", s.Outcome.Winner)
	case game.Draw:
		return "Draw!"
	}
	if s.Turn == game.PlayerX {
		return "Your turn (X)"
	}
	return "Computer's turn (O)"
}
