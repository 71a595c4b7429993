package session

import (
	"context"
	"ctchen222/tictactoe-solo/internal/game"
	"ctchen222/tictactoe-solo/internal/session/mocks"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestNotifiers_CallsEveryNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockNotifier(ctrl)
	second := mocks.NewMockNotifier(ctrl)
	events := []game.Event{{Kind: game.StatusChanged, Text: "X's Turn"}}
	failure := errors.New("write failed")

	first.EXPECT().Notify(gomock.Any(), "s1", events).Return(failure)
	second.EXPECT().Notify(gomock.Any(), "s1", events).Return(nil)

	err := Notifiers{first, nil, second}.Notify(context.Background(), "s1", events)
	assert.ErrorIs(t, err, failure)
}

func TestNotifierFunc(t *testing.T) {
	var got string
	f := NotifierFunc(func(_ context.Context, id string, _ []game.Event) error {
		got = id
		return nil
	})
	assert.NoError(t, f.Notify(context.Background(), "s2", nil))
	assert.Equal(t, "s2", got)
}
