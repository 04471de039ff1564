package player

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is one browser tab watching and driving a session.
type Player struct {
	ID        string
	SessionID string
	Conn      Connection

	mu     sync.Mutex
	closed bool
}

// NewPlayer wraps a connection for the given session.
func NewPlayer(id, sessionID string, conn Connection) *Player {
	return &Player{ID: id, SessionID: sessionID, Conn: conn}
}

// Send writes a text frame. Writes are serialized.
func (p *Player) Send(data []byte) error {
	return p.write(websocket.TextMessage, data)
}

// SendJSON marshals v and writes it as a text frame.
func (p *Player) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message for player %s: %w", p.ID, err)
	}
	return p.Send(data)
}

// Ping writes a ping control frame.
func (p *Player) Ping() error {
	return p.write(websocket.PingMessage, nil)
}

// Close closes the connection once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.Conn.Close()
}

func (p *Player) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return websocket.ErrCloseSent
	}
	return p.Conn.WriteMessage(messageType, data)
}
