package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/internal/session/mocks"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const waitTimeout = time.Second

type recordingNotifier struct {
	ch chan []game.Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan []game.Event, 64)}
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, events []game.Event) error {
	n.ch <- events
	return nil
}

func (n *recordingNotifier) next(t *testing.T) []game.Event {
	t.Helper()
	select {
	case events := <-n.ch:
		return events
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for session events")
		return nil
	}
}

func (n *recordingNotifier) assertQuiet(t *testing.T) {
	t.Helper()
	select {
	case events := <-n.ch:
		t.Fatalf("unexpected events %+v", events)
	default:
	}
}

// manualTimer hands every armed timer channel to the test.
type manualTimer struct {
	armed   chan chan time.Time
	stopped atomic.Int32
}

func newManualTimer() *manualTimer {
	return &manualTimer{armed: make(chan chan time.Time, 8)}
}

func (m *manualTimer) schedule(time.Duration) (<-chan time.Time, func() bool) {
	c := make(chan time.Time, 1)
	m.armed <- c
	return c, func() bool {
		m.stopped.Add(1)
		return true
	}
}

func (m *manualTimer) next(t *testing.T) chan time.Time {
	t.Helper()
	select {
	case c := <-m.armed:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the opponent timer")
		return nil
	}
}

func startSession(t *testing.T, selector MoveSelector, notifier Notifier, opts ...Option) *Session {
	t.Helper()
	s := New("session-test", selector, notifier, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func cell(index int, mark game.Mark) game.Event {
	return game.Event{Kind: game.CellChanged, Index: index, Mark: mark}
}

func status(text string) game.Event {
	return game.Event{Kind: game.StatusChanged, Text: text}
}

func TestSession_InitialStatus(t *testing.T) {
	n := newRecordingNotifier()
	startSession(t, bot.NewCalculator(bot.Classic, nil), n)

	assert.Equal(t, []game.Event{status("X's Turn")}, n.next(t))
}

func TestSession_PlayerMoveThenOpponent(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl)
	timer := newManualTimer()
	n := newRecordingNotifier()
	s := startSession(t, selector, n, withScheduler(timer.schedule))
	n.next(t)

	ctx := context.Background()
	require.NoError(t, s.SelectCell(ctx, 0))
	assert.Equal(t, []game.Event{cell(0, game.PlayerMark), status("O's Turn")}, n.next(t))

	want := game.Board{game.PlayerMark}
	selector.EXPECT().NextMove(want, game.OpponentMark).Return(4, true)
	timer.next(t) <- time.Now()

	assert.Equal(t, []game.Event{cell(4, game.OpponentMark), status("X's Turn")}, n.next(t))

	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PlayerTurn, st.Turn)
	assert.Equal(t, game.OpponentMark, st.Board[4])
}

func TestSession_RejectedMovesAreSilent(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl)
	timer := newManualTimer()
	n := newRecordingNotifier()
	s := startSession(t, selector, n, withScheduler(timer.schedule))
	n.next(t)

	ctx := context.Background()
	require.NoError(t, s.SelectCell(ctx, -1))
	require.NoError(t, s.SelectCell(ctx, 9))
	require.NoError(t, s.SelectCell(ctx, 3))
	n.next(t)
	timer.next(t)

	// Opponent's turn: both an occupied and a free cell are ignored.
	require.NoError(t, s.SelectCell(ctx, 3))
	require.NoError(t, s.SelectCell(ctx, 5))

	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Board.Count(game.PlayerMark))
	assert.Equal(t, game.Empty, st.Board[5])
	n.assertQuiet(t)
}

func TestSession_ResetCancelsPendingOpponent(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl) // no calls expected
	timer := newManualTimer()
	n := newRecordingNotifier()
	s := startSession(t, selector, n, withScheduler(timer.schedule))
	n.next(t)

	ctx := context.Background()
	require.NoError(t, s.SelectCell(ctx, 0))
	n.next(t)
	stale := timer.next(t)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, []game.Event{{Kind: game.BoardCleared}, status("X's Turn")}, n.next(t))
	assert.Equal(t, int32(1), timer.stopped.Load())

	// A timer that fires anyway is no longer watched by the loop.
	stale <- time.Now()

	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.New(), st)
	n.assertQuiet(t)
}

func TestSession_ResetAlwaysYieldsFreshState(t *testing.T) {
	n := newRecordingNotifier()
	s := startSession(t, bot.NewCalculator(bot.Classic, nil), n, WithOpponentDelay(0))
	n.next(t)

	ctx := context.Background()
	for _, idx := range []int{0, 1, 2, 3, 5, 6, 7, 8} {
		require.NoError(t, s.SelectCell(ctx, idx))
	}
	require.NoError(t, s.Reset(ctx))

	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.New(), st)
}

func TestSession_RowWinScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl)
	timer := newManualTimer()
	n := newRecordingNotifier()
	s := startSession(t, selector, n, withScheduler(timer.schedule))
	n.next(t)

	ctx := context.Background()
	gomock.InOrder(
		selector.EXPECT().NextMove(gomock.Any(), game.OpponentMark).Return(4, true),
		selector.EXPECT().NextMove(gomock.Any(), game.OpponentMark).Return(8, true),
	)

	for _, idx := range []int{0, 1} {
		require.NoError(t, s.SelectCell(ctx, idx))
		n.next(t)
		timer.next(t) <- time.Now()
		n.next(t)
	}

	require.NoError(t, s.SelectCell(ctx, 2))
	assert.Equal(t, []game.Event{cell(2, game.PlayerMark), status("X Wins!")}, n.next(t))

	require.NoError(t, s.SelectCell(ctx, 5))
	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Won, st.Phase)
	assert.Equal(t, game.PlayerMark, st.Winner)
	assert.Equal(t, game.Empty, st.Board[5])
	n.assertQuiet(t)

	select {
	case <-timer.armed:
		t.Fatal("opponent scheduled after the game ended")
	default:
	}
}

func TestSession_OpponentMoveRevalidatesState(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl) // no calls expected
	notifier := mocks.NewMockNotifier(ctrl)     // no calls expected

	s := New("stale", selector, notifier)
	s.state = game.State{
		Board:  game.Board{game.PlayerMark, game.PlayerMark, game.PlayerMark, game.OpponentMark, game.OpponentMark},
		Turn:   game.OpponentTurn,
		Phase:  game.Won,
		Winner: game.PlayerMark,
	}
	s.opponentMove(context.Background())

	s.state = game.New()
	s.opponentMove(context.Background())
	assert.Equal(t, game.New(), s.state)
}

func TestSession_InvalidOpponentChoiceIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	selector := mocks.NewMockMoveSelector(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	s := New("bad-bot", selector, notifier)
	s.state, _, _ = game.New().PlayerMove(0)
	selector.EXPECT().NextMove(s.state.Board, game.OpponentMark).Return(0, true)

	before := s.state
	s.opponentMove(context.Background())
	assert.Equal(t, before, s.state)
}

func TestSession_NotifierErrorDoesNotStopLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), "session-test", gomock.Any()).Return(errors.New("socket gone")).AnyTimes()
	timer := newManualTimer()
	s := startSession(t, bot.NewCalculator(bot.Classic, nil), notifier, withScheduler(timer.schedule))

	ctx := context.Background()
	require.NoError(t, s.SelectCell(ctx, 0))
	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PlayerMark, st.Board[0])
}

func TestSession_RealTimerOpponentReplies(t *testing.T) {
	n := newRecordingNotifier()
	s := startSession(t, bot.NewCalculator(bot.Classic, nil), n, WithOpponentDelay(5*time.Millisecond))
	n.next(t)

	require.NoError(t, s.SelectCell(context.Background(), 0))
	n.next(t)

	// Classic bot takes the free center.
	assert.Equal(t, []game.Event{cell(4, game.OpponentMark), status("X's Turn")}, n.next(t))
}

func TestSession_ClosedSessionRejectsInputs(t *testing.T) {
	n := newRecordingNotifier()
	s := startSession(t, bot.NewCalculator(bot.Classic, nil), n)
	n.next(t)

	s.Close()
	s.Close()
	<-s.Done()

	ctx := context.Background()
	assert.ErrorIs(t, s.SelectCell(ctx, 0), ErrClosed)
	assert.ErrorIs(t, s.Reset(ctx), ErrClosed)
	_, err := s.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_LastActiveAdvancesOnInput(t *testing.T) {
	n := newRecordingNotifier()
	s := startSession(t, bot.NewCalculator(bot.Classic, nil), n)
	n.next(t)

	before := s.LastActive()
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.Reset(context.Background()))
	assert.True(t, s.LastActive().After(before))
}
