package player

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/pkg/proto"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Player is the human at the other end of a websocket. It receives the
// session's events as wire messages.
type Player struct {
	Conn Connection

	mu sync.Mutex
}

// NewPlayer creates a new player.
func NewPlayer(conn Connection) *Player {
	return &Player{Conn: conn}
}

// Send writes one message to the socket.
func (p *Player) Send(message *proto.ServerToClientMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", message.Type, err)
	}
	return p.write(websocket.TextMessage, data)
}

// Ping sends a websocket ping frame.
func (p *Player) Ping() error {
	return p.write(websocket.PingMessage, nil)
}

// Notify forwards each event to the socket in order and stops at the first
// write error.
func (p *Player) Notify(_ context.Context, _ string, events []game.Event) error {
	for _, e := range events {
		if err := p.Send(proto.EventMessage(e)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := p.Conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
