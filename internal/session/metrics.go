package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter = otel.Meter("session")

	moveCounter    = newCounter("game.moves", "Marks placed on the board.")
	outcomeCounter = newCounter("game.outcomes", "Finished games by result.")
)

func newCounter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return c
}

func recordMove(ctx context.Context, mark game.Mark) {
	moveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mark", string(mark))))
}

func recordOutcome(ctx context.Context, s game.State) {
	result := string(s.Phase)
	if s.Phase == game.Won {
		result = "won_" + string(s.Winner)
	}
	outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
