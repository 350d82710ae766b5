package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stanza/internal/pubsub"
)

func TestWatcher_PublishesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mm-account.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg := DefaultConfig(path)
	cfg.DebounceDur = 20 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := w.Subscribe(ctx)
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(path, []byte(`{"protocol":"local"}`), 0o644))

	msg := listener.Listen()()
	ev, ok := msg.(pubsub.Event[WatcherEvent])
	require.True(t, ok)
	require.Equal(t, pubsub.UpdatedEvent, ev.Type)
	require.Equal(t, path, ev.Payload.Path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mm-account.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg := DefaultConfig(path)
	cfg.DebounceDur = 20 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := w.broker.Subscribe(ctx)
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for unrelated file: %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}
