package events

import (
	"ctchen222/tictactoe-solo/internal/game"
	"encoding/json"
	"fmt"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Lifecycle event types published on EventsChannel.
const (
	SessionStarted = "session_started"
	SessionEnded   = "session_ended"
)

// SessionChannel is the channel carrying one session's game events.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("channel:session:%s", sessionID)
}

// Event represents a message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SessionPayload is the payload for the lifecycle events.
type SessionPayload struct {
	SessionID string `json:"session_id"`
}

// CellChangedPayload is the payload for the "cell_changed" event.
type CellChangedPayload struct {
	SessionID string    `json:"session_id"`
	Index     int       `json:"index"`
	Mark      game.Mark `json:"mark"`
}

// StatusChangedPayload is the payload for the "status_changed" event.
type StatusChangedPayload struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// BoardClearedPayload is the payload for the "board_cleared" event.
type BoardClearedPayload struct {
	SessionID string `json:"session_id"`
}

// Encode wraps a payload in an Event envelope.
func Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return data, nil
}

// FromGameEvent converts a game event into its Pub/Sub form.
func FromGameEvent(sessionID string, e game.Event) ([]byte, error) {
	switch e.Kind {
	case game.CellChanged:
		return Encode(string(e.Kind), CellChangedPayload{SessionID: sessionID, Index: e.Index, Mark: e.Mark})
	case game.StatusChanged:
		return Encode(string(e.Kind), StatusChangedPayload{SessionID: sessionID, Text: e.Text})
	case game.BoardCleared:
		return Encode(string(e.Kind), BoardClearedPayload{SessionID: sessionID})
	default:
		return nil, fmt.Errorf("unknown game event kind %q", e.Kind)
	}
}
