package proto

import (
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/internal/session"
)

// Message types.
const (
	TypeMove       = "move"
	TypeReset      = "reset"
	TypeDifficulty = "difficulty"
	TypeState      = "state"
	TypeClosed     = "closed"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type       string `json:"type" validate:"required,oneof=move reset difficulty"`
	Index      *int   `json:"index,omitempty" validate:"required_if=Type move"`
	Difficulty string `json:"difficulty,omitempty" validate:"required_if=Type difficulty,omitempty,difficulty"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string `json:"type" validate:"required"`
	Reason string `json:"reason,omitempty"`
	*GameState
}

// GameState is the wire view of a session.
type GameState struct {
	SessionID  string   `json:"session_id"`
	Board      []string `json:"board"`
	Next       string   `json:"next"`
	Outcome    string   `json:"outcome"`
	Winner     string   `json:"winner"`
	Line       []int    `json:"line,omitempty"`
	Difficulty string   `json:"difficulty"`
	LastMove   int      `json:"last_move"`
	Pending    bool     `json:"pending"`
	Status     string   `json:"status"`
	Seq        uint64   `json:"seq"`
}

// NewGameState converts a session snapshot. Next is empty once the game is over.
func NewGameState(st session.State) *GameState {
	gs := &GameState{
		SessionID:  st.SessionID,
		Board:      st.Board.Strings(),
		Outcome:    st.Outcome.Result.String(),
		Winner:     st.Outcome.Winner.String(),
		Difficulty: st.Difficulty.String(),
		LastMove:   st.LastMove,
		Pending:    st.Pending,
		Status:     st.Status(),
		Seq:        st.Seq,
	}
	if st.Outcome.Result == game.Win {
		gs.Line = st.Outcome.Line[:]
	}
	if !st.Outcome.Terminal() {
		gs.Next = st.Turn.String()
	}
	return gs
}

// NewStateMessage wraps a session snapshot in a "state" message.
func NewStateMessage(st session.State) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeState, GameState: NewGameState(st)}
}

// NewClosedMessage tells the client the session is gone.
func NewClosedMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeClosed, Reason: reason}
}
