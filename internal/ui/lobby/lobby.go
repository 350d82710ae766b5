// Package lobby implements the room directory view and the output sink
// for register dumps and help text.
package lobby

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stanza/internal/editor"
	"github.com/zjrosen/stanza/internal/ui/styles"
)

// RoomItem is one directory row.
type RoomItem struct {
	RoomName string
	Kind     string // "room" or "direct"
}

func (i RoomItem) Title() string       { return i.RoomName }
func (i RoomItem) Description() string { return i.Kind }
func (i RoomItem) FilterValue() string { return i.RoomName }

// View is the lobby: the room list above an output log.
type View struct {
	rooms  list.Model
	output []string
	width  int
	height int
}

// New builds an empty lobby.
func New() *View {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Rooms"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	return &View{rooms: l}
}

// Name implements window.View.
func (v *View) Name() string { return "*lobby*" }

// Title implements window.View.
func (v *View) Title() string { return "Lobby" }

// SetSize implements window.View.
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.rooms.SetSize(width, maxInt(height-v.outputHeight(), 3))
}

// SetRooms replaces the directory listing.
func (v *View) SetRooms(items []RoomItem) {
	rows := make([]list.Item, len(items))
	for i, it := range items {
		rows[i] = it
	}
	v.rooms.SetItems(rows)
}

// Selected returns the highlighted room, if any.
func (v *View) Selected() (RoomItem, bool) {
	it, ok := v.rooms.SelectedItem().(RoomItem)
	return it, ok
}

// MoveSelection steps the room list cursor.
func (v *View) MoveSelection(delta int) {
	if delta > 0 {
		for i := 0; i < delta; i++ {
			v.rooms.CursorDown()
		}
		return
	}
	for i := 0; i < -delta; i++ {
		v.rooms.CursorUp()
	}
}

// Println appends one line to the output log.
func (v *View) Println(line string) {
	v.output = append(v.output, line)
}

// PrintRegisters formats a register dump into the output log.
func (v *View) PrintRegisters(entries []editor.RegisterEntry) {
	if len(entries) == 0 {
		v.Println("No registers set")
		return
	}
	v.Println("--- Registers ---")
	for _, e := range entries {
		v.Println(fmt.Sprintf("  %c  %q", e.Name, e.Value))
	}
}

// outputHeight is the rows reserved for the output log.
func (v *View) outputHeight() int {
	if len(v.output) == 0 {
		return 0
	}
	return minInt(len(v.output)+1, v.height/2)
}

// Render implements window.View.
func (v *View) Render() string {
	if v.height <= 0 {
		return ""
	}
	parts := []string{v.rooms.View()}
	if h := v.outputHeight(); h > 0 {
		start := maxInt(len(v.output)-(h-1), 0)
		block := strings.Join(v.output[start:], "\n")
		parts = append(parts, styles.PaneBorderStyle.Width(v.width).Render(block))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
