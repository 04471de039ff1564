package game

import (
	"errors"
	"strings"
)

// Mark is the content of a board cell, or the player who owns a turn.
type Mark uint8

const (
	Empty Mark = iota
	PlayerX
	PlayerO
)

// Board boundaries
const (
	CellMin   = 0
	CellMax   = 8
	CellCount = 9
)

var (
	ErrOutOfRange  = errors.New("cell index out of range")
	ErrOccupied    = errors.New("cell already occupied")
	ErrNotYourTurn = errors.New("not player's turn")
	ErrGameOver    = errors.New("game already finished")
)

func (m Mark) String() string {
	switch m {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mark) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "X":
		*m = PlayerX
	case "O":
		*m = PlayerO
	case "":
		*m = Empty
	default:
		return errors.New("unknown mark " + string(text))
	}
	return nil
}

// Board is the 3x3 grid in row-major order: Board[row*3+col].
type Board [CellCount]Mark

// EmptyCells returns the indices of free cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, m := range b {
		if m == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether every cell is occupied.
func (b Board) IsFull() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// Count returns how many cells hold mark.
func (b Board) Count(mark Mark) int {
	n := 0
	for _, m := range b {
		if m == mark {
			n++
		}
	}
	return n
}

// Strings converts the board into its wire form.
func (b Board) Strings() []string {
	out := make([]string, CellCount)
	for i, m := range b {
		out[i] = m.String()
	}
	return out
}

func (b Board) String() string {
	var sb strings.Builder
	for i, m := range b {
		if m == Empty {
			sb.WriteByte('_')
		} else {
			sb.WriteString(m.String())
		}
		if i%3 == 2 && i != CellMax {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// State is the board together with the player to move.
type State struct {
	Board Board
	Turn  Mark
}

// New returns an empty board with X to move.
func New() State {
	return State{Turn: PlayerX}
}

// Apply places player's mark on cell index. On rejection the receiver is
// returned unchanged together with the reason.
func (s State) Apply(index int, player Mark) (State, error) {
	if Detect(s.Board).Terminal() {
		return s, ErrGameOver
	}
	if index < CellMin || index > CellMax {
		return s, ErrOutOfRange
	}
	if player != s.Turn {
		return s, ErrNotYourTurn
	}
	if s.Board[index] != Empty {
		return s, ErrOccupied
	}

	next := s
	next.Board[index] = player
	next.Turn = player.Opponent()
	return next, nil
}

// Outcome is the derived result of a board.
func (s State) Outcome() Outcome {
	return Detect(s.Board)
}
