// Package app contains the root application model. All keyboard input
// funnels through here into the focused state machine; the resulting
// intents drive the buffer, the window tree, and the backend.
package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stanza/internal/backend"
	"github.com/zjrosen/stanza/internal/command"
	"github.com/zjrosen/stanza/internal/config"
	"github.com/zjrosen/stanza/internal/editor"
	"github.com/zjrosen/stanza/internal/input"
	"github.com/zjrosen/stanza/internal/log"
	"github.com/zjrosen/stanza/internal/pubsub"
	"github.com/zjrosen/stanza/internal/ui/chat"
	"github.com/zjrosen/stanza/internal/ui/lobby"
	"github.com/zjrosen/stanza/internal/ui/statusline"
	"github.com/zjrosen/stanza/internal/ui/styles"
	"github.com/zjrosen/stanza/internal/ui/window"
	"github.com/zjrosen/stanza/internal/watcher"
)

// focusKind says where key events are routed.
type focusKind int

const (
	focusPane focusKind = iota
	focusCommand
)

// redrawInterval is the periodic repaint driving relative timestamps.
const redrawInterval = time.Second

// Messages produced by the app's own commands.
type (
	tickMsg      struct{}
	shellDoneMsg struct{ err error }

	// sendResultMsg reports the outcome of an asynchronous send.
	sendResultMsg struct {
		roomID string
		text   string
		err    error
	}

	// roomEventMsg wraps a room broker event with the room identity.
	roomEventMsg struct {
		roomID string
		event  pubsub.Event[backend.Message]
	}
)

// Model is the root application state.
type Model struct {
	cfg config.Config

	be        backend.Backend
	regs      *editor.RegisterStore
	directory *backend.Directory

	win    *window.Window
	lobby  *lobby.View
	status statusline.Model

	vi     *input.ViFSM
	simple *input.SimpleFSM
	cmdBuf *editor.TextBuffer
	focus  focusKind

	width  int
	height int

	ctx    context.Context
	cancel context.CancelFunc

	// Room views by room id; a room may show in several panes but owns
	// one view.
	views         map[string]*chat.View
	roomListeners map[string]*pubsub.ContinuousListener[backend.Message]

	sessionListener *pubsub.ContinuousListener[backend.SessionEvent]
	configWatcher   *watcher.Watcher
}

// New creates the application model around a connected backend.
func New(cfg config.Config, be backend.Backend, cfgWatcher *watcher.Watcher) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	regs := editor.NewRegisterStore()
	lob := lobby.New()

	m := &Model{
		cfg:           cfg,
		be:            be,
		regs:          regs,
		directory:     backend.NewDirectory(func(string) (backend.User, bool) { return nil, false }),
		lobby:         lob,
		status:        statusline.New(),
		vi:            input.NewViFSM(),
		simple:        input.NewSimpleFSM(),
		cmdBuf:        editor.NewTextBuffer(regs),
		ctx:           ctx,
		cancel:        cancel,
		views:         make(map[string]*chat.View),
		roomListeners: make(map[string]*pubsub.ContinuousListener[backend.Message]),
		configWatcher: cfgWatcher,
	}
	m.cmdBuf.SetCompleter(completeCommand)
	m.win = window.New(window.NewPane(lob, regs))
	m.sessionListener = pubsub.NewContinuousListener(ctx, be.Events())
	return m
}

// completeCommand proposes ':' command name suffixes.
func completeCommand(stem string) []string {
	var out []string
	for _, name := range command.Names() {
		if len(name) > len(stem) && name[:len(stem)] == stem {
			out = append(out, name[len(stem):])
		}
	}
	return out
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.Tick(redrawInterval, func(time.Time) tea.Msg { return tickMsg{} }),
		m.sessionListener.Listen(),
		func() tea.Msg {
			if err := m.be.Connect(m.ctx); err != nil {
				return sendResultMsg{err: err}
			}
			return nil
		},
	}
	if m.configWatcher != nil {
		listener := m.configWatcher.Subscribe(m.ctx)
		cmds = append(cmds, listener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.win.SetSize(msg.Width, msg.Height-1)
		m.status.SetWidth(msg.Width)
		m.cmdBuf.SetWidth(maxInt(msg.Width-2, 1))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Tick(redrawInterval, func(time.Time) tea.Msg { return tickMsg{} })

	case sendResultMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatBackend, "Send failed", msg.err, "room", msg.roomID)
			if v, ok := m.views[msg.roomID]; ok {
				v.AppendSynthetic(chat.SendFailedLine(msg.text))
			} else {
				m.status.ShowMessage(chat.SendFailedLine(msg.text))
			}
		}
		return m, nil

	case roomEventMsg:
		if v, ok := m.views[msg.roomID]; ok {
			v.AppendMessage(msg.event.Payload)
		}
		if l, ok := m.roomListeners[msg.roomID]; ok {
			return m, listenRoom(l, msg.roomID)
		}
		return m, nil

	case pubsub.Event[backend.SessionEvent]:
		switch msg.Type {
		case pubsub.ConnectedEvent:
			if u := msg.Payload.User; u != nil {
				m.status.ShowMessage("Connected as " + u.DisplayName())
			}
		case pubsub.ReconnectedEvent:
			m.status.ShowMessage("Reconnected")
		}
		return m, m.sessionListener.Listen()

	case pubsub.Event[watcher.WatcherEvent]:
		m.status.ShowMessage("Config file changed on disk; restart to apply")
		if m.configWatcher != nil {
			listener := m.configWatcher.Subscribe(m.ctx)
			return m, listener.Listen()
		}
		return m, nil

	case shellDoneMsg:
		if msg.err != nil {
			m.status.ShowMessage(fmt.Sprintf("Shell exited: %v", msg.err))
		}
		return m, tea.ClearScreen
	}
	return m, nil
}

// handleKey routes one key event into the focused state machine and
// applies every produced intent before returning.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev, ok := input.FromKeyMsg(msg)
	if !ok {
		return m, nil
	}
	var intents []input.Intent
	if m.focus == focusCommand {
		intents = m.simple.Handle(ev)
	} else {
		intents = m.vi.Handle(ev)
	}
	return m.applyIntents(intents)
}

// focusedBuffer is the buffer editing intents target: the command bar or
// the focused room view's input line. Nil when the lobby is focused.
func (m *Model) focusedBuffer() *editor.TextBuffer {
	if m.focus == focusCommand {
		return m.cmdBuf
	}
	if v, ok := m.win.Focused().Current().(*chat.View); ok {
		return v.Buffer()
	}
	return nil
}

func (m *Model) focusedChat() (*chat.View, bool) {
	v, ok := m.win.Focused().Current().(*chat.View)
	return v, ok
}

// applyIntents processes intents in order. Processing finishes before
// the next key event is interpreted, which the Bubble Tea update loop
// guarantees.
func (m *Model) applyIntents(intents []input.Intent) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, it := range intents {
		switch it := it.(type) {
		case input.Warn:
			m.status.ShowMessage(it.Message)

		case input.ModeChange:
			m.status.SetMode(it.Mode)
			if buf := m.focusedBuffer(); buf != nil {
				_ = buf.Apply(it)
			}

		case input.Submit:
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case input.Switch:
			m.leaveCommandBar()

		case input.Focus:
			if cmd := m.applyFocus(it); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case input.Window:
			m.applyWindow(it)

		case input.Scroll:
			if v, ok := m.focusedChat(); ok {
				v.Scroll(it.Direction, it.Kind, it.Count)
			}

		case input.Suspend:
			cmds = append(cmds, m.shellCmd())

		case input.Refresh:
			cmds = append(cmds, tea.ClearScreen)

		default:
			buf := m.focusedBuffer()
			if buf == nil {
				continue
			}
			if err := buf.Apply(it); err != nil {
				m.status.ShowMessage(err.Error())
			}
		}
	}
	return m, tea.Batch(cmds...)
}

// ============================================================================
// Submit, command bar
// ============================================================================

// submit sends the focused buffer's line: a ':' command when the command
// bar is focused, a chat message otherwise.
func (m *Model) submit() tea.Cmd {
	if m.focus == focusCommand {
		line := m.cmdBuf.Value()
		m.leaveCommandBar()
		return m.runCommand(line)
	}

	v, ok := m.focusedChat()
	if !ok {
		// Lobby: enter opens the selected room.
		if item, ok := m.lobby.Selected(); ok {
			if item.Kind == "direct" {
				return m.runCommand("dm " + item.RoomName)
			}
			return m.runCommand("join " + item.RoomName)
		}
		return nil
	}
	text := v.Buffer().Value()
	if text == "" {
		return nil
	}
	v.Buffer().Reset()
	room := v.Room()
	return func() tea.Msg {
		err := room.SendMessage(context.Background(), text)
		return sendResultMsg{roomID: room.ID(), text: text, err: err}
	}
}

func (m *Model) leaveCommandBar() {
	m.cmdBuf.Reset()
	m.focus = focusPane
	m.status.SetMode(input.ModeNormal)
}

// runCommand interprets and executes one ':' line.
func (m *Model) runCommand(line string) tea.Cmd {
	action, err := command.Interpret(line)
	if err != nil {
		m.status.ShowMessage(err.Error())
		return nil
	}
	if action == nil {
		return nil
	}
	m.regs.SetLastCommand(line)
	log.Debug(log.CatCmd, "Executing command", "line", line)

	switch action := action.(type) {
	case command.OpenDirect:
		return m.openRoom(action.User, true)
	case command.JoinRoom:
		return m.openRoom(action.Room, false)
	case command.Split:
		if err := m.win.HSplit(0); err != nil {
			m.status.ShowMessage(err.Error())
		}
	case command.VSplit:
		m.status.ShowMessage(window.ErrVerticalSplits.Error())
	case command.Quit:
		if err := m.win.CloseCurrent(); err != nil {
			m.shutdown()
			return tea.Quit
		}
	case command.QuitAll:
		m.shutdown()
		return tea.Quit
	case command.Shell:
		return m.shellCmd()
	case command.DumpRegisters:
		m.lobby.PrintRegisters(m.regs.Dump())
		m.focusLobby()
	case command.Help:
		for _, line := range splitLines(command.HelpText(action.Topic)) {
			m.lobby.Println(line)
		}
		m.focusLobby()
	}
	return nil
}

// openRoom resolves a room or direct chat, builds its view on first
// visit, focuses it, and starts listening for its messages.
func (m *Model) openRoom(name string, direct bool) tea.Cmd {
	var room backend.Room
	var ok bool
	if direct {
		room, ok = m.be.GetDirectByName(m.ctx, name)
	} else {
		room, ok = m.be.GetRoomByName(m.ctx, name)
	}
	if !ok {
		m.status.ShowMessage("No such room: " + name)
		return nil
	}

	v, seen := m.views[room.ID()]
	if !seen {
		v = chat.NewView(room, m.regs, m.directory, m.cfg.UI.MarkdownStyle)
		v.LoadScrollback(m.ctx)
		m.views[room.ID()] = v
	}
	m.win.Focused().FocusView(v)
	m.win.SetSize(m.width, m.height-1)
	m.refreshLobbyRooms()

	if !seen {
		listener := pubsub.NewContinuousListener(m.ctx, room.Events())
		m.roomListeners[room.ID()] = listener
		return listenRoom(listener, room.ID())
	}
	return nil
}

func (m *Model) refreshLobbyRooms() {
	items := make([]lobby.RoomItem, 0, len(m.views))
	for _, v := range m.views {
		kind := "room"
		if _, hasAlias := v.Room().Alias(); hasAlias {
			kind = "direct"
		}
		items = append(items, lobby.RoomItem{RoomName: v.Name(), Kind: kind})
	}
	m.lobby.SetRooms(items)
}

func (m *Model) focusLobby() {
	m.win.Focused().FocusView(m.lobby)
	m.win.SetSize(m.width, m.height-1)
}

// listenRoom wraps a room listener command with the room identity.
func listenRoom(l *pubsub.ContinuousListener[backend.Message], roomID string) tea.Cmd {
	inner := l.Listen()
	return func() tea.Msg {
		msg := inner()
		if msg == nil {
			return nil
		}
		ev, ok := msg.(pubsub.Event[backend.Message])
		if !ok {
			return nil
		}
		return roomEventMsg{roomID: roomID, event: ev}
	}
}

// ============================================================================
// Focus and window intents
// ============================================================================

func (m *Model) applyFocus(it input.Focus) tea.Cmd {
	switch it.Target {
	case input.FocusCommand:
		m.focus = focusCommand
		return nil
	case input.FocusLobby:
		m.focusLobby()
		return nil
	case input.FocusWindow:
		if err := m.win.Focus(it.Direction, it.Count); err != nil {
			m.status.ShowMessage(err.Error())
		}
		return nil
	case input.FocusHistory:
		if _, ok := m.focusedChat(); !ok {
			// Lobby focus: the jump keys move the room selection.
			if it.Direction == input.DirNext {
				m.lobby.MoveSelection(it.Count)
			} else {
				m.lobby.MoveSelection(-maxInt(it.Count, 1))
			}
			return nil
		}
		m.win.Focused().FocusHistory(it.Direction, it.Count)
		m.win.SetSize(m.width, m.height-1)
		return nil
	}
	return nil
}

func (m *Model) applyWindow(it input.Window) {
	switch it.Action {
	case input.WinSplit:
		if it.Direction == input.DirRight {
			m.status.ShowMessage(window.ErrVerticalSplits.Error())
			return
		}
		if err := m.win.HSplit(0); err != nil {
			m.status.ShowMessage(err.Error())
		}
	case input.WinResize:
		switch it.Direction {
		case input.DirLeft, input.DirRight:
			m.status.ShowMessage(window.ErrVerticalSplits.Error())
		case input.DirUp:
			m.win.HResize(-maxInt(it.Count, 1))
		case input.DirDown:
			m.win.HResize(maxInt(it.Count, 1))
		}
	case input.WinEqualize:
		m.win.EResize()
	case input.WinRotate:
		m.win.Rotate(it.Direction, maxInt(it.Count, 1))
	case input.WinZoom:
		m.win.ToggleZoom()
	}
	m.win.SetSize(m.width, m.height-1)
}

// ============================================================================
// Shell, shutdown
// ============================================================================

// shellCmd pauses the UI and hands the terminal to $SHELL.
func (m *Model) shellCmd() tea.Cmd {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	c := exec.Command(shell) //nolint:gosec // G204: $SHELL is the user's own shell
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return shellDoneMsg{err: err}
	})
}

func (m *Model) shutdown() {
	m.cancel()
	if err := m.be.Close(); err != nil {
		log.ErrorErr(log.CatBackend, "Backend close failed", err)
	}
}

// ============================================================================
// View
// ============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	bottom := m.status.View()
	if m.focus == focusCommand {
		bottom = m.renderCommandBar()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.win.Render(), bottom)
}

// renderCommandBar draws the ':' prompt with the command buffer.
func (m *Model) renderCommandBar() string {
	visible, cursor := m.cmdBuf.VisibleSlice()
	cs := editor.Graphemes(visible)
	out := styles.PromptStyle.Render(":")
	for i, c := range cs {
		if i == cursor {
			out += styles.CursorStyle.Render(c)
			continue
		}
		out += c
	}
	if cursor >= len(cs) {
		out += styles.CursorStyle.Render(" ")
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
