package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByEventType(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var created, assigned int
	dispatcher.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		created++
		return nil
	})
	dispatcher.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		assigned++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))

	assert.Equal(t, 2, created)
	assert.Equal(t, 0, assigned)
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var second bool
	dispatcher.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketStatusChanged}))
	assert.True(t, second)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCommentAdded}))
}
