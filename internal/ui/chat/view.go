// Package chat implements the room view: the scrollback log of one room
// above the editable input line. It is the View hosted by window panes.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/zjrosen/stanza/internal/backend"
	"github.com/zjrosen/stanza/internal/editor"
	"github.com/zjrosen/stanza/internal/input"
	"github.com/zjrosen/stanza/internal/log"
	"github.com/zjrosen/stanza/internal/ui/styles"
)

// sendPreviewLimit and sendPreviewCut shape the failure log line: the
// message preview is cut to 15 characters plus an ellipsis when the text
// runs past 18.
const (
	sendPreviewLimit = 18
	sendPreviewCut   = 15
)

// logLine is one rendered row source: a message or a synthetic notice.
type logLine struct {
	speakerID   string
	speakerName string
	body        string
	created     time.Time
	synthetic   bool
}

// View is one room bound to an input buffer.
type View struct {
	room      backend.Room
	buffer    *editor.TextBuffer
	directory *backend.Directory

	lines  []logLine
	width  int
	height int

	// scroll is the offset from the bottom of the log, in rows.
	scroll int

	markdown      *glamour.TermRenderer
	markdownStyle string
}

// NewView builds a view for a room. The buffer is owned by the view; its
// completer proposes speaker names from the scrollback.
func NewView(room backend.Room, regs *editor.RegisterStore, directory *backend.Directory, markdownStyle string) *View {
	v := &View{
		room:          room,
		buffer:        editor.NewTextBuffer(regs),
		directory:     directory,
		markdownStyle: markdownStyle,
	}
	v.buffer.SetCompleter(v.completeSpeaker)
	return v
}

// Name implements window.View: the short room name recorded in %/#.
func (v *View) Name() string {
	if name, ok := v.room.Name(); ok {
		return name
	}
	return v.room.ID()
}

// Title implements window.View.
func (v *View) Title() string {
	if alias, ok := v.room.Alias(); ok {
		return alias
	}
	return v.Name()
}

// Room returns the backing room.
func (v *View) Room() backend.Room { return v.room }

// Buffer returns the input buffer, the target of editing intents while
// this view is focused.
func (v *View) Buffer() *editor.TextBuffer { return v.buffer }

// SetSize implements window.View.
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.buffer.SetWidth(maxInt(width-2, 1))
	v.markdown = nil // re-built lazily at the new wrap width
}

// LoadScrollback replays the room's archived messages into the log.
func (v *View) LoadScrollback(ctx context.Context) {
	v.lines = v.lines[:0]
	err := v.room.ForEachMessage(ctx, func(m backend.Message) bool {
		v.appendMessage(m)
		return true
	})
	if err != nil {
		log.ErrorErr(log.CatBackend, "Failed to load scrollback", err, "room", v.Name())
		v.AppendSynthetic(fmt.Sprintf("Failed to load messages: %v", err))
	}
}

// AppendMessage adds an arriving message to the log.
func (v *View) AppendMessage(m backend.Message) {
	v.appendMessage(m)
	v.scroll = 0
}

func (v *View) appendMessage(m backend.Message) {
	v.lines = append(v.lines, logLine{
		speakerID:   m.Speaker().ID(),
		speakerName: m.Speaker().DisplayName(),
		body:        m.Text(),
		created:     m.Created(),
	})
}

// AppendSynthetic adds a client-generated notice line.
func (v *View) AppendSynthetic(text string) {
	v.lines = append(v.lines, logLine{body: text, synthetic: true, created: time.Now()})
}

// SendFailedLine renders the synthetic failure line for a message that
// could not be sent.
func SendFailedLine(text string) string {
	preview := text
	if editor.GraphemeCount(preview) > sendPreviewLimit {
		cs := editor.Graphemes(preview)
		preview = strings.Join(cs[:sendPreviewCut], "") + "..."
	}
	return "Failed to send message: " + preview
}

// Scroll moves the log window.
func (v *View) Scroll(dir input.Direction, kind input.ScrollKind, count int) {
	if count < 1 {
		count = 1
	}
	step := 0
	switch kind {
	case input.ScrollLine, input.ScrollChar:
		step = count
	case input.ScrollScreen:
		step = count * maxInt(v.logHeight(), 1)
	case input.ScrollTop:
		v.scroll = maxInt(len(v.lines)-v.logHeight(), 0)
		return
	case input.ScrollBottom:
		v.scroll = 0
		return
	}
	if dir == input.DirUp {
		v.scroll = minInt(v.scroll+step, maxInt(len(v.lines)-1, 0))
	} else {
		v.scroll = maxInt(v.scroll-step, 0)
	}
}

// logHeight is the rows available to the log above the input line and
// the pane title.
func (v *View) logHeight() int {
	return maxInt(v.height-2, 1)
}

// ============================================================================
// Rendering
// ============================================================================

// Render implements window.View.
func (v *View) Render() string {
	if v.width <= 0 || v.height <= 0 {
		return ""
	}
	title := styles.PaneTitleStyle.Render(v.Title())
	logPart := v.renderLog()
	inputPart := v.renderInput()
	return lipgloss.JoinVertical(lipgloss.Left, title, logPart, inputPart)
}

func (v *View) renderLog() string {
	rows := make([]string, 0, len(v.lines))
	for _, l := range v.lines {
		rows = append(rows, v.renderLine(l)...)
	}
	h := v.logHeight()
	end := maxInt(len(rows)-v.scroll, 0)
	start := maxInt(end-h, 0)
	visible := rows[start:end]
	for len(visible) < h {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

// renderLine draws one log entry, wrapped to the pane width.
func (v *View) renderLine(l logLine) []string {
	if l.synthetic {
		return strings.Split(wordwrap.String(styles.SyntheticStyle.Render(l.body), v.width), "\n")
	}

	name := l.speakerName
	if v.directory != nil {
		name = v.directory.DisplayName(l.speakerID)
	}
	gutter := styles.TimestampStyle.Render(l.created.Format("15:04")) + " " +
		styles.SpeakerStyle.Render(name) + ": "

	body := v.renderBody(l.body)
	wrapped := wordwrap.String(body, maxInt(v.width-lipgloss.Width(gutter), 10))
	lines := strings.Split(strings.TrimRight(wrapped, "\n"), "\n")

	out := make([]string, 0, len(lines))
	pad := strings.Repeat(" ", lipgloss.Width(gutter))
	for i, line := range lines {
		if i == 0 {
			out = append(out, gutter+line)
		} else {
			out = append(out, pad+line)
		}
	}
	return out
}

// renderBody renders a message body, through glamour when it looks like
// markdown and plain otherwise.
func (v *View) renderBody(body string) string {
	if !strings.ContainsAny(body, "*_`[#>") {
		return body
	}
	r := v.renderer()
	if r == nil {
		return body
	}
	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(out)
}

func (v *View) renderer() *glamour.TermRenderer {
	if v.markdown != nil {
		return v.markdown
	}
	style := v.markdownStyle
	if style == "" {
		if termenv.HasDarkBackground() {
			style = "dark"
		} else {
			style = "light"
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(maxInt(v.width-8, 20)),
	)
	if err != nil {
		log.ErrorErr(log.CatUI, "Failed to build markdown renderer", err)
		return nil
	}
	v.markdown = r
	return r
}

// renderInput draws the input line with the cursor cell reversed and the
// visual selection highlighted.
func (v *View) renderInput() string {
	prompt := styles.PromptStyle.Render("> ")
	visible, cursor := v.buffer.VisibleSlice()
	cs := editor.Graphemes(visible)

	var selStart, selEnd = -1, -1
	if a := v.buffer.Anchor(); a != nil {
		start := v.buffer.Start().X
		lo, hi := a.X, v.buffer.Cursor().X
		if lo > hi {
			lo, hi = hi, lo
		}
		selStart, selEnd = lo-start, hi-start
	}

	var b strings.Builder
	b.WriteString(prompt)
	for i, c := range cs {
		switch {
		case i == cursor:
			b.WriteString(styles.CursorStyle.Render(c))
		case selStart >= 0 && i >= selStart && i <= selEnd:
			b.WriteString(styles.HighlightStyle.Render(c))
		default:
			b.WriteString(c)
		}
	}
	if cursor >= len(cs) {
		b.WriteString(styles.CursorStyle.Render(" "))
	}
	return b.String()
}

// completeSpeaker proposes display-name suffixes for the word stem under
// the cursor.
func (v *View) completeSpeaker(stem string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range v.lines {
		if l.synthetic {
			continue
		}
		name := l.speakerName
		if seen[name] || !strings.HasPrefix(name, stem) {
			continue
		}
		seen[name] = true
		out = append(out, strings.TrimPrefix(name, stem))
	}
	return out
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
