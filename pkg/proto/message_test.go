package proto

import (
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/internal/validator"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateMessage(t *testing.T) {
	var board game.Board
	board[0], board[1], board[2] = game.PlayerX, game.PlayerX, game.PlayerX
	board[3], board[4] = game.PlayerO, game.PlayerO

	st := session.State{
		SessionID:  "abc",
		Board:      board,
		Turn:       game.PlayerO,
		Outcome:    game.Detect(board),
		Difficulty: bot.Hard,
		LastMove:   2,
		Seq:        5,
	}

	data, err := json.Marshal(NewStateMessage(st))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "state",
		"session_id": "abc",
		"board": ["X","X","X","O","O","","","",""],
		"next": "",
		"outcome": "win",
		"winner": "X",
		"line": [0,1,2],
		"difficulty": "hard",
		"last_move": 2,
		"pending": false,
		"status": "Winner: X",
		"seq": 5
	}`, string(data))
}

func TestNewStateMessage_Ongoing(t *testing.T) {
	st := session.State{
		SessionID:  "abc",
		Turn:       game.PlayerX,
		Difficulty: bot.Easy,
		LastMove:   session.NoMove,
	}

	gs := NewGameState(st)
	assert.Equal(t, "X", gs.Next)
	assert.Equal(t, "ongoing", gs.Outcome)
	assert.Empty(t, gs.Winner)
	assert.Nil(t, gs.Line)
	assert.Equal(t, -1, gs.LastMove)
	assert.Equal(t, "Your turn (X)", gs.Status)
}

func TestNewClosedMessage(t *testing.T) {
	data, err := json.Marshal(NewClosedMessage("idle"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"closed","reason":"idle"}`, string(data))
}

func TestClientToServerMessage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"move", `{"type":"move","index":4}`, false},
		{"move at zero", `{"type":"move","index":0}`, false},
		{"move out of range passes through", `{"type":"move","index":12}`, false},
		{"move without index", `{"type":"move"}`, true},
		{"reset", `{"type":"reset"}`, false},
		{"difficulty", `{"type":"difficulty","difficulty":"hard"}`, false},
		{"difficulty mixed case", `{"type":"difficulty","difficulty":"Easy"}`, false},
		{"difficulty unknown", `{"type":"difficulty","difficulty":"medium"}`, true},
		{"difficulty missing", `{"type":"difficulty"}`, true},
		{"unknown type", `{"type":"rematch"}`, true},
		{"missing type", `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg ClientToServerMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			err := validator.GetValidator().Struct(msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
