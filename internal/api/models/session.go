package models

import "ctchen222/tictactoe-solo/pkg/proto"

// CreateSessionRequest defines the body of a new-session request. An empty
// difficulty selects the default.
type CreateSessionRequest struct {
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}

// MoveRequest defines the body of a human move.
type MoveRequest struct {
	Index *int `json:"index" binding:"required"`
}

// DifficultyRequest defines the body of a difficulty change.
type DifficultyRequest struct {
	Difficulty string `json:"difficulty" binding:"required,difficulty"`
}

// CreateSessionResponse carries the new session's ID, its access token and its initial state.
type CreateSessionResponse struct {
	SessionID string           `json:"session_id"`
	Token     string           `json:"token"`
	State     *proto.GameState `json:"state"`
}

// MoveResponse reports whether a move was accepted and the state afterwards.
type MoveResponse struct {
	Accepted bool             `json:"accepted"`
	State    *proto.GameState `json:"state"`
}
