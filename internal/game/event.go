package game

// EventKind identifies a presentation notification.
type EventKind string

const (
	CellChanged   EventKind = "cell_changed"
	StatusChanged EventKind = "status_changed"
	BoardCleared  EventKind = "board_cleared"
)

// Event is emitted after every accepted mutation. Index and Mark are set for
// CellChanged, Text for StatusChanged.
type Event struct {
	Kind  EventKind `json:"kind"`
	Index int       `json:"index"`
	Mark  Mark      `json:"mark,omitempty"`
	Text  string    `json:"text,omitempty"`
}
