// Package statusline renders the bottom status row: either a transient
// message or the mode indicator of the focused input machine.
package statusline

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/stanza/internal/input"
	"github.com/zjrosen/stanza/internal/ui/styles"
)

// displayState is which of the two faces the line shows.
type displayState int

const (
	stateMessage displayState = iota
	stateStatus
)

// Model is the status line state.
type Model struct {
	state   displayState
	message string
	mode    input.Mode
	width   int
}

// New returns an empty status line in message state.
func New() Model {
	return Model{}
}

// SetWidth sets the rendering width.
func (m *Model) SetWidth(w int) { m.width = w }

// ShowMessage switches to the transient message face.
func (m *Model) ShowMessage(msg string) {
	m.state = stateMessage
	m.message = msg
}

// SetMode reacts to a mode-change notification. Entering normal returns
// to the message face with a cleared buffer; the other modes show the
// mode indicator.
func (m *Model) SetMode(mode input.Mode) {
	m.mode = mode
	if mode == input.ModeNormal {
		m.state = stateMessage
		m.message = ""
		return
	}
	m.state = stateStatus
}

// View renders the line, truncated to width.
func (m Model) View() string {
	var out string
	switch m.state {
	case stateStatus:
		style := styles.StatusModeStyle.Foreground(styles.ModeColor(m.mode.String()))
		out = style.Render("-- " + m.mode.String() + " --")
	default:
		out = styles.StatusMessageStyle.Render(m.message)
	}
	if m.width > 0 {
		out = ansi.Truncate(out, m.width, "…")
		out = lipgloss.NewStyle().Width(m.width).Render(out)
	}
	return out
}
