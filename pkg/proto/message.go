package proto

import "ctchen222/tictactoe-solo/internal/game"

// Client message types
const (
	TypeSelect = "select"
	TypeReset  = "reset"
)

// Server message types
const (
	TypeState   = "state"
	TypeCell    = "cell"
	TypeStatus  = "status"
	TypeCleared = "cleared"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type  string `json:"type" validate:"required,oneof=select reset"`
	Index *int   `json:"index,omitempty" validate:"required_if=Type select,omitempty,cell"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Index     *int        `json:"index,omitempty"`
	Mark      game.Mark   `json:"mark,omitempty"`
	Text      string      `json:"text,omitempty"`
	Board     []game.Mark `json:"board,omitempty"`
	Turn      game.Mark   `json:"turn,omitempty"`
	Phase     game.Phase  `json:"phase,omitempty"`
	Winner    game.Mark   `json:"winner,omitempty"`
	Status    string      `json:"status,omitempty"`
}

// StateMessage builds the full snapshot sent on connect and by the REST API.
func StateMessage(sessionID string, s game.State) *ServerToClientMessage {
	return &ServerToClientMessage{
		Type:      TypeState,
		SessionID: sessionID,
		Board:     s.Board.Slice(),
		Turn:      s.Turn.Mark(),
		Phase:     s.Phase,
		Winner:    s.Winner,
		Status:    s.Status(),
	}
}

// EventMessage converts a game event to its wire form.
func EventMessage(e game.Event) *ServerToClientMessage {
	switch e.Kind {
	case game.CellChanged:
		index := e.Index
		return &ServerToClientMessage{Type: TypeCell, Index: &index, Mark: e.Mark}
	case game.StatusChanged:
		return &ServerToClientMessage{Type: TypeStatus, Text: e.Text}
	default:
		return &ServerToClientMessage{Type: TypeCleared}
	}
}
