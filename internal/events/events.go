package events

import (
	"encoding/json"
	"fmt"
)

// Event types carried on a session channel.
const (
	TypeState         = "state"
	TypeSessionClosed = "session_closed"
)

// Reasons a session can be closed for.
const (
	ReasonEnded    = "ended"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// SessionChannel names the Pub/Sub channel carrying a session's events.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("channel:session:%s", sessionID)
}

// Event represents a message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SessionClosedPayload is the payload for the "session_closed" event.
type SessionClosedPayload struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// Encode wraps payload in an Event and marshals it.
func Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return data, nil
}

// Decode unmarshals an Event; the payload is left raw.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("unmarshal event: missing type")
	}
	return event, nil
}
