package hub

import (
	"context"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/events"
	"ctchen222/tictactoe-solo/internal/session"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

var tracer = otel.Tracer("hub")

// Announcer publishes session lifecycle events.
type Announcer interface {
	Announce(ctx context.Context, eventType, sessionID string) error
}

// Options configures the sessions a Hub creates.
type Options struct {
	Difficulty    bot.Difficulty
	OpponentDelay time.Duration
	IdleTimeout   time.Duration
	SweepInterval time.Duration

	// Mirror, when set, receives every session's events in addition to the
	// caller's notifier.
	Mirror    session.Notifier
	Announcer Announcer
}

// Hub manages all live sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new hub.
func NewHub(opts Options) *Hub {
	if opts.Difficulty == "" {
		opts.Difficulty = bot.Classic
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions: make(map[string]*session.Session),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run sweeps idle sessions until ctx is done, then stops every session.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case now := <-ticker.C:
			h.sweep(ctx, now)
		}
	}
}

// Create starts a new session whose events go to notifier.
func (h *Hub) Create(ctx context.Context, notifier session.Notifier) *session.Session {
	id := uuid.New().String()
	ctx, span := tracer.Start(ctx, "hub.Create", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("bot.difficulty", string(h.opts.Difficulty)),
	))
	defer span.End()

	var sessionOpts []session.Option
	if h.opts.OpponentDelay > 0 {
		sessionOpts = append(sessionOpts, session.WithOpponentDelay(h.opts.OpponentDelay))
	}

	s := session.New(id,
		bot.NewCalculator(h.opts.Difficulty, nil),
		session.Notifiers{notifier, h.opts.Mirror},
		sessionOpts...,
	)

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	go s.Run(h.ctx)
	slog.InfoContext(ctx, "Session created", "session.id", id, "bot.difficulty", h.opts.Difficulty)
	h.announce(ctx, span, events.SessionStarted, id)
	return s
}

// Get returns the live session with id.
func (h *Hub) Get(id string) (*session.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Remove stops the session with id and reports whether it existed.
func (h *Hub) Remove(ctx context.Context, id string) bool {
	ctx, span := tracer.Start(ctx, "hub.Remove", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	slog.InfoContext(ctx, "Session removed", "session.id", id)
	h.announce(ctx, span, events.SessionEnded, id)
	return true
}

// Shutdown stops every session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session.Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.cancel()
	slog.Info("Hub stopped", "sessions.closed", len(sessions))
}

// sweep removes sessions that saw no input for longer than the idle timeout.
func (h *Hub) sweep(ctx context.Context, now time.Time) int {
	h.mu.RLock()
	var idle []string
	for id, s := range h.sessions {
		if now.Sub(s.LastActive()) > h.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range idle {
		slog.InfoContext(ctx, "Session exceeded idle timeout. Removing.", "session.id", id)
		h.Remove(ctx, id)
	}
	return len(idle)
}

func (h *Hub) announce(ctx context.Context, span trace.Span, eventType, id string) {
	if h.opts.Announcer == nil {
		return
	}
	if err := h.opts.Announcer.Announce(ctx, eventType, id); err != nil {
		slog.ErrorContext(ctx, "Failed to announce session event", "event.type", eventType, "session.id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to announce session event")
	}
}
