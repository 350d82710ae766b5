package app

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stanza/internal/backend"
	"github.com/zjrosen/stanza/internal/backend/local"
	"github.com/zjrosen/stanza/internal/config"
)

func newTestApp(t *testing.T) *teatest.TestModel {
	t.Helper()
	be, err := local.New(backend.Options{
		Auth: map[string]any{"user": "alice", "display_name": "Alice"},
	})
	require.NoError(t, err)

	model := New(config.Defaults(), be, nil)
	return teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))
}

func typeKeys(tm *teatest.TestModel, s string) {
	for _, r := range s {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func pressEnter(tm *teatest.TestModel) {
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
}

func pressEscape(tm *teatest.TestModel) {
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
}

func TestApp_BootsIntoLobby(t *testing.T) {
	tm := newTestApp(t)

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Rooms"))
	}, teatest.WithDuration(3*time.Second))

	typeKeys(tm, ":qall")
	pressEnter(tm)
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func TestApp_JoinRoomAndSend(t *testing.T) {
	tm := newTestApp(t)

	typeKeys(tm, ":join general")
	pressEnter(tm)
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("general"))
	}, teatest.WithDuration(3*time.Second))

	// Insert a message, leave insert mode, submit from normal.
	typeKeys(tm, "ihello room")
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("INSERT"))
	}, teatest.WithDuration(3*time.Second))
	pressEscape(tm)
	pressEnter(tm)

	// The sent message lands in the log under the speaker id.
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("alice")) && bytes.Contains(bts, []byte("hello room"))
	}, teatest.WithDuration(3*time.Second))

	typeKeys(tm, ":qall")
	pressEnter(tm)
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func TestApp_UnknownCommandWarns(t *testing.T) {
	tm := newTestApp(t)

	typeKeys(tm, ":jion x")
	pressEnter(tm)
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Not a client command: jion"))
	}, teatest.WithDuration(3*time.Second))

	typeKeys(tm, ":qall")
	pressEnter(tm)
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}
