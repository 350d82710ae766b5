package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stanza/internal/backend"
	"github.com/zjrosen/stanza/internal/pubsub"
)

func newTestBackend(t *testing.T) backend.Backend {
	t.Helper()
	be, err := New(backend.Options{
		Auth: map[string]any{"user": "alice", "display_name": "Alice"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = be.Close() })
	return be
}

func TestLocal_SchemaValidation(t *testing.T) {
	err := Schema().Validate(map[string]any{})
	require.Error(t, err, "user is required")

	err = Schema().Validate(map[string]any{"user": 42})
	require.Error(t, err, "user must be a string")

	require.NoError(t, Schema().Validate(map[string]any{"user": "alice"}))
}

func TestLocal_ConnectPublishesSession(t *testing.T) {
	be := newTestBackend(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := be.Events().Subscribe(ctx)

	require.NoError(t, be.Connect(ctx))

	select {
	case ev := <-ch:
		require.Equal(t, pubsub.ConnectedEvent, ev.Type)
		require.Equal(t, "Alice", ev.Payload.User.DisplayName())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for connected event")
	}
}

func TestLocal_RoomRoundTrip(t *testing.T) {
	be := newTestBackend(t)
	ctx := context.Background()

	room, ok := be.GetRoomByName(ctx, "general")
	require.True(t, ok)
	name, hasName := room.Name()
	require.True(t, hasName)
	require.Equal(t, "general", name)

	// The same name resolves to the same room.
	again, ok := be.GetRoomByName(ctx, "general")
	require.True(t, ok)
	require.Equal(t, room.ID(), again.ID())

	// Directs are a separate namespace.
	dm, ok := be.GetDirectByName(ctx, "general")
	require.True(t, ok)
	require.NotEqual(t, room.ID(), dm.ID())
}

func TestLocal_SendArchivesAndPublishes(t *testing.T) {
	be := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	room, ok := be.GetRoomByName(ctx, "general")
	require.True(t, ok)
	ch := room.Events().Subscribe(ctx)

	require.NoError(t, room.SendMessage(ctx, "hello room"))

	select {
	case ev := <-ch:
		require.Equal(t, "hello room", ev.Payload.Text())
		require.Equal(t, "alice", ev.Payload.Speaker().ID())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message event")
	}

	var texts []string
	require.NoError(t, room.ForEachMessage(ctx, func(m backend.Message) bool {
		texts = append(texts, m.Text())
		return true
	}))
	require.Equal(t, []string{"hello room"}, texts)
}

func TestLocal_VisitorCanStopEarly(t *testing.T) {
	be := newTestBackend(t)
	ctx := context.Background()

	room, _ := be.GetRoomByName(ctx, "general")
	require.NoError(t, room.SendMessage(ctx, "one"))
	require.NoError(t, room.SendMessage(ctx, "two"))

	count := 0
	require.NoError(t, room.ForEachMessage(ctx, func(backend.Message) bool {
		count++
		return false
	}))
	require.Equal(t, 1, count)
}
