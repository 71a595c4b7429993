package game

import (
	"errors"
	"fmt"
)

// Turn says who places the next mark.
type Turn int

const (
	PlayerTurn Turn = iota
	OpponentTurn
)

// Mark returns the mark placed on this turn.
func (t Turn) Mark() Mark {
	if t == OpponentTurn {
		return OpponentMark
	}
	return PlayerMark
}

func (t Turn) flip() Turn {
	if t == PlayerTurn {
		return OpponentTurn
	}
	return PlayerTurn
}

// Phase is the lifecycle position of a game.
type Phase string

const (
	InProgress Phase = "in_progress"
	Won        Phase = "won"
	Draw       Phase = "draw"
)

var (
	ErrOutOfRange      = errors.New("cell index out of range")
	ErrCellOccupied    = errors.New("cell already occupied")
	ErrGameOver        = errors.New("game already finished")
	ErrNotPlayerTurn   = errors.New("not the player's turn")
	ErrNotOpponentTurn = errors.New("not the opponent's turn")
)

// State is a complete game snapshot. It is a value type: transitions return a
// new State and never modify the receiver.
type State struct {
	Board  Board
	Turn   Turn
	Phase  Phase
	Winner Mark
}

// New returns the starting position. The player always moves first.
func New() State {
	return State{
		Turn:  PlayerTurn,
		Phase: InProgress,
	}
}

// Reset returns a fresh state and the events that clear the presentation.
func Reset() (State, []Event) {
	s := New()
	return s, []Event{
		{Kind: BoardCleared},
		{Kind: StatusChanged, Text: s.Status()},
	}
}

// IsOver reports whether the game reached a terminal phase.
func (s State) IsOver() bool {
	return s.Phase != InProgress
}

// OpponentDue reports whether the opponent should be scheduled to move.
func (s State) OpponentDue() bool {
	return s.Phase == InProgress && s.Turn == OpponentTurn
}

// Status is the text shown to the player.
func (s State) Status() string {
	switch s.Phase {
	case Won:
		return fmt.Sprintf("%s Wins!", s.Winner)
	case Draw:
		return "Draw"
	default:
		return fmt.Sprintf("%s's Turn", s.Turn.Mark())
	}
}

// PlayerMove places the player's mark at index.
func (s State) PlayerMove(index int) (State, []Event, error) {
	if s.Turn != PlayerTurn && !s.IsOver() {
		return s, nil, ErrNotPlayerTurn
	}
	return s.place(PlayerTurn, index)
}

// OpponentMove places the opponent's mark at index.
func (s State) OpponentMove(index int) (State, []Event, error) {
	if s.Turn != OpponentTurn && !s.IsOver() {
		return s, nil, ErrNotOpponentTurn
	}
	return s.place(OpponentTurn, index)
}

func (s State) place(turn Turn, index int) (State, []Event, error) {
	if s.IsOver() {
		return s, nil, ErrGameOver
	}
	if !InRange(index) {
		return s, nil, fmt.Errorf("%w: cell %d", ErrOutOfRange, index)
	}
	if s.Board[index] != Empty {
		return s, nil, fmt.Errorf("%w: cell %d", ErrCellOccupied, index)
	}

	mark := turn.Mark()
	s.Board[index] = mark
	s = s.evaluate()

	return s, []Event{
		{Kind: CellChanged, Index: index, Mark: mark},
		{Kind: StatusChanged, Text: s.Status()},
	}, nil
}

// evaluate settles the phase after a placement and advances the turn while
// the game continues.
func (s State) evaluate() State {
	if winner := s.Board.Winner(); winner != Empty {
		s.Phase = Won
		s.Winner = winner
		return s
	}
	if s.Board.IsFull() {
		s.Phase = Draw
		return s
	}
	s.Turn = s.Turn.flip()
	return s
}
