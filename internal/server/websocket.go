package server

import (
	"context"
	"ctchen222/tictactoe-solo/internal/player"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/internal/validator"
	"ctchen222/tictactoe-solo/pkg/proto"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleWebSocket upgrades the connection and binds it to a new session for
// as long as the socket stays open.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		span.End()
		return
	}

	p := player.NewPlayer(conn)
	sess := s.hub.Create(ctx, p)
	span.SetAttributes(attribute.String("session.id", sess.ID))

	state, err := sess.Snapshot(ctx)
	if err == nil {
		err = p.Send(proto.StateMessage(sess.ID, state))
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send initial state", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send initial state")
	}
	span.End()

	done := make(chan struct{})
	go s.pingLoop(p, sess.Done(), done)

	s.readPump(p, sess)
	close(done)
	conn.Close()
	s.hub.Remove(context.Background(), sess.ID)
}

// readPump feeds client messages to the session until the socket fails.
func (s *Server) readPump(p *player.Player, sess *session.Session) {
	for {
		_, raw, err := p.Conn.ReadMessage()
		if err != nil {
			slog.Info("Player connection closed", "session.id", sess.ID, "error", err)
			return
		}
		if err := s.dispatch(sess, raw); err != nil {
			return
		}
	}
}

// dispatch handles one client message. Malformed messages are dropped; only
// a closed session ends the read loop.
func (s *Server) dispatch(sess *session.Session, raw []byte) error {
	ctx, span := tracer.Start(context.Background(), "server.dispatch", trace.WithAttributes(
		attribute.String("session.id", sess.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(raw, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		return nil
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		return nil
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeSelect:
		err = sess.SelectCell(ctx, *message.Index)
	case proto.TypeReset:
		err = sess.Reset(ctx)
	}
	if err != nil {
		slog.WarnContext(ctx, "Session rejected input", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session rejected input")
	}
	return err
}

// pingLoop keeps the socket alive and closes it once the session stops, for
// example after an idle sweep, so readPump returns.
func (s *Server) pingLoop(p *player.Player, sessionDone, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-sessionDone:
			p.Conn.Close()
			return
		case <-ticker.C:
			if err := p.Ping(); err != nil {
				slog.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}
