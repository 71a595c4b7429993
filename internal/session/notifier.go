package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"
	"errors"
)

// Notifiers dispatches events to several notifiers. Every notifier is called
// even when an earlier one fails.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(ctx context.Context, sessionID string, events []game.Event) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, sessionID, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, sessionID string, events []game.Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, sessionID string, events []game.Event) error {
	return f(ctx, sessionID, events)
}
