package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=session.go -destination=mocks/mock_session.go -package=mocks

const (
	inboxSize            = 16
	DefaultOpponentDelay = 500 * time.Millisecond
)

var tracer = otel.Tracer("session")

// ErrClosed is returned for inputs sent to a stopped session.
var ErrClosed = errors.New("session closed")

// Notifier receives the events produced by every accepted mutation.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, events []game.Event) error
}

// MoveSelector defines an agent that picks the opponent's cell.
type MoveSelector interface {
	NextMove(board game.Board, mark game.Mark) (index int, ok bool)
}

// scheduleFunc arms a one-shot timer and returns its channel and stop function.
type scheduleFunc func(d time.Duration) (<-chan time.Time, func() bool)

func newTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

type commandKind int

const (
	selectCell commandKind = iota
	resetGame
	snapshot
)

type command struct {
	kind  commandKind
	index int
	ctx   context.Context
	reply chan game.State
}

// Option configures a Session.
type Option func(*Session)

// WithOpponentDelay sets the pause before the opponent answers.
func WithOpponentDelay(d time.Duration) Option {
	return func(s *Session) {
		s.delay = d
	}
}

func withScheduler(f scheduleFunc) Option {
	return func(s *Session) {
		s.schedule = f
	}
}

// Session is one game against the opponent. All state is owned by the Run
// goroutine; other goroutines talk to it through the inbox.
type Session struct {
	ID string

	state    game.State
	selector MoveSelector
	notifier Notifier
	delay    time.Duration
	schedule scheduleFunc

	inbox chan command
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	// pending is nil unless an opponent move is scheduled.
	pending     <-chan time.Time
	stopPending func() bool

	lastActive atomic.Int64
}

// New creates a session. Call Run to start processing inputs.
func New(id string, selector MoveSelector, notifier Notifier, opts ...Option) *Session {
	s := &Session{
		ID:       id,
		state:    game.New(),
		selector: selector,
		notifier: notifier,
		delay:    DefaultOpponentDelay,
		schedule: newTimer,
		inbox:    make(chan command, inboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.touch()
	return s
}

// Run is the session's event loop. It returns when ctx is cancelled or Close
// is called.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	defer s.cancelPending()

	slog.InfoContext(ctx, "Session started", "session.id", s.ID)
	s.publish(ctx, []game.Event{{Kind: game.StatusChanged, Text: s.state.Status()}})

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Session stopping, context done", "session.id", s.ID)
			return

		case <-s.quit:
			slog.InfoContext(ctx, "Session closed", "session.id", s.ID)
			return

		case cmd := <-s.inbox:
			s.handle(ctx, cmd)

		case <-s.pending:
			s.pending, s.stopPending = nil, nil
			s.opponentMove(ctx)
		}
	}
}

// Close stops the event loop. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SelectCell queues the player's selection of index. Rule violations are
// dropped silently by the loop.
func (s *Session) SelectCell(ctx context.Context, index int) error {
	return s.send(ctx, command{kind: selectCell, index: index, ctx: ctx})
}

// Reset queues a reset to the starting position.
func (s *Session) Reset(ctx context.Context) error {
	return s.send(ctx, command{kind: resetGame, ctx: ctx})
}

// Snapshot returns the current state. Inputs queued before the call are
// applied first.
func (s *Session) Snapshot(ctx context.Context) (game.State, error) {
	reply := make(chan game.State, 1)
	if err := s.send(ctx, command{kind: snapshot, reply: reply}); err != nil {
		return game.State{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return game.State{}, ErrClosed
	case <-ctx.Done():
		return game.State{}, ctx.Err()
	}
}

// LastActive is the time of the most recent input.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) send(ctx context.Context, cmd command) error {
	select {
	case <-s.quit:
		return ErrClosed
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- cmd:
		if cmd.kind != snapshot {
			s.touch()
		}
		return nil
	case <-s.quit:
		return ErrClosed
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case selectCell:
		s.playerMove(spanParent(ctx, cmd.ctx), cmd.index)
	case resetGame:
		s.reset(spanParent(ctx, cmd.ctx))
	case snapshot:
		cmd.reply <- s.state
	}
}

// spanParent keeps the loop's lifetime but links the caller's trace.
func spanParent(loopCtx, callerCtx context.Context) context.Context {
	if callerCtx == nil {
		return loopCtx
	}
	return trace.ContextWithSpanContext(loopCtx, trace.SpanContextFromContext(callerCtx))
}

// playerMove applies the player's move and schedules the opponent's response.
func (s *Session) playerMove(ctx context.Context, index int) {
	ctx, span := tracer.Start(ctx, "session.playerMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	next, events, err := s.state.PlayerMove(index)
	if err != nil {
		slog.DebugContext(ctx, "Ignoring player move", "session.id", s.ID, "move.index", index, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		return
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.state = next
	recordMove(ctx, game.PlayerMark)
	s.publish(ctx, events)
	s.afterMove(ctx)
}

// opponentMove runs when the presentation delay elapses. The state is checked
// again because the game may have moved on since the timer was armed.
func (s *Session) opponentMove(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.opponentMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	if !s.state.OpponentDue() {
		slog.DebugContext(ctx, "Opponent move no longer due", "session.id", s.ID, "phase", s.state.Phase)
		return
	}

	index, ok := s.selector.NextMove(s.state.Board, game.OpponentMark)
	if !ok {
		slog.WarnContext(ctx, "Opponent found no move", "session.id", s.ID)
		span.SetStatus(codes.Error, "Opponent found no move")
		return
	}
	span.SetAttributes(attribute.Int("move.index", index))

	next, events, err := s.state.OpponentMove(index)
	if err != nil {
		slog.ErrorContext(ctx, "Opponent chose an invalid move", "session.id", s.ID, "move.index", index, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Opponent chose an invalid move")
		return
	}

	s.state = next
	recordMove(ctx, game.OpponentMark)
	s.publish(ctx, events)
	s.afterMove(ctx)
}

func (s *Session) afterMove(ctx context.Context) {
	switch {
	case s.state.OpponentDue():
		s.pending, s.stopPending = s.schedule(s.delay)
	case s.state.IsOver():
		slog.InfoContext(ctx, "Game finished", "session.id", s.ID, "phase", s.state.Phase, "winner", s.state.Winner)
		recordOutcome(ctx, s.state)
	}
}

// reset cancels a pending opponent move before installing the fresh state.
func (s *Session) reset(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.reset", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	if s.cancelPending() {
		span.SetAttributes(attribute.Bool("reset.cancelled_opponent", true))
	}

	var events []game.Event
	s.state, events = game.Reset()
	s.publish(ctx, events)
}

// cancelPending drops the scheduled opponent move and reports whether there was one.
func (s *Session) cancelPending() bool {
	if s.pending == nil {
		return false
	}
	if s.stopPending != nil {
		s.stopPending()
	}
	s.pending, s.stopPending = nil, nil
	return true
}

func (s *Session) publish(ctx context.Context, events []game.Event) {
	if s.notifier == nil || len(events) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, s.ID, events); err != nil {
		slog.ErrorContext(ctx, "Failed to deliver session events", "session.id", s.ID, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
