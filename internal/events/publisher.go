package events

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Publisher mirrors session events onto Redis Pub/Sub.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Redis-backed publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Notify publishes every event of the batch on the session's channel in one pipeline.
func (p *Publisher) Notify(ctx context.Context, sessionID string, evs []game.Event) error {
	ctx, span := tracer.Start(ctx, "Publisher.Notify", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("events.count", len(evs)),
	))
	defer span.End()

	channel := SessionChannel(sessionID)
	pipe := p.rdb.Pipeline()
	for _, e := range evs {
		data, err := FromGameEvent(sessionID, e)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to encode event")
			return err
		}
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish session events")
		return fmt.Errorf("failed to publish events for session %s: %w", sessionID, err)
	}
	return nil
}

// Announce publishes a lifecycle event on EventsChannel.
func (p *Publisher) Announce(ctx context.Context, eventType, sessionID string) error {
	ctx, span := tracer.Start(ctx, "Publisher.Announce", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("event.type", eventType),
	))
	defer span.End()

	data, err := Encode(eventType, SessionPayload{SessionID: sessionID})
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish lifecycle event")
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}
