package editor

import (
	"fmt"
	"strings"

	"github.com/zjrosen/stanza/internal/input"
)

// historySize bounds the undo history of one buffer.
const historySize = 128

// Cursor is a position in the buffer. Y is always 0 for the single-line
// buffer; it is carried so the model extends to multi-line logs.
type Cursor struct {
	X int
	Y int
}

// Completer produces completion suffixes for a stem. Injected by the
// owning view (user names in a room, command names in the command bar).
type Completer func(stem string) []string

// EmptyRegisterError is returned by Paste when the source register has
// no value. Its message is shown verbatim on the status line.
type EmptyRegisterError struct {
	Register rune
}

func (e EmptyRegisterError) Error() string {
	return fmt.Sprintf("Nothing in register %c", e.Register)
}

// UnknownMarkError is returned by mark jumps on unset marks.
type UnknownMarkError struct {
	Mark rune
	// Known is true when the name is legal but unset.
	Known bool
}

func (e UnknownMarkError) Error() string {
	if e.Known {
		return "Mark not set"
	}
	return fmt.Sprintf("Unknown mark: %c", e.Mark)
}

// completionState tracks an in-flight tab-completion rotation.
type completionState struct {
	active         bool
	options        []string
	index          int
	originalText   string
	originalCursor Cursor
}

// TextBuffer is a single-line editable buffer. It consumes the intents
// emitted by the input state machines and reads and writes the register
// store. Cursor columns are grapheme indices.
type TextBuffer struct {
	value  string
	cursor Cursor
	start  Cursor
	anchor *Cursor

	history *HistList[string]
	prev    string

	regs      *RegisterStore
	completer Completer
	comp      completionState

	marks map[rune]Cursor

	// insertedRun accumulates typed text between checkpoints for the
	// last-inserted register.
	insertedRun strings.Builder

	// width is the visible column count of the horizontal scroll
	// window; zero disables scrolling.
	width int
}

// NewTextBuffer creates an empty buffer bound to a register store. The
// history is seeded with the empty snapshot so Current is always valid.
func NewTextBuffer(regs *RegisterStore) *TextBuffer {
	h := NewHistList[string](historySize)
	h.Append("")
	return &TextBuffer{
		history: h,
		regs:    regs,
		marks:   make(map[rune]Cursor),
	}
}

// SetCompleter installs the completion source.
func (b *TextBuffer) SetCompleter(c Completer) { b.completer = c }

// SetWidth sets the visible width used for horizontal scrolling.
func (b *TextBuffer) SetWidth(w int) {
	b.width = w
	b.ensureVisible()
}

// Value returns the current line.
func (b *TextBuffer) Value() string { return b.value }

// Cursor returns the cursor position.
func (b *TextBuffer) Cursor() Cursor { return b.cursor }

// Start returns the horizontal scroll origin.
func (b *TextBuffer) Start() Cursor { return b.start }

// Anchor returns the highlight anchor, nil outside visual mode.
func (b *TextBuffer) Anchor() *Cursor { return b.anchor }

// StartHighlight remembers the cursor as the highlight anchor. Called on
// entry into visual mode.
func (b *TextBuffer) StartHighlight() {
	a := b.cursor
	b.anchor = &a
}

// Reset clears the buffer after a submit: empty value, fresh history.
func (b *TextBuffer) Reset() {
	b.value = ""
	b.cursor = Cursor{}
	b.start = Cursor{}
	b.anchor = nil
	b.prev = ""
	b.history = NewHistList[string](historySize)
	b.history.Append("")
	b.comp = completionState{}
	b.insertedRun.Reset()
}

// Apply consumes one intent. Intents that do not concern the buffer
// (focus, window, scroll, submit, warnings) are ignored; the caller
// routes those. The returned error is a user-facing warning, never a
// fatal condition.
func (b *TextBuffer) Apply(it input.Intent) error {
	switch it := it.(type) {
	case input.Clamp:
		b.Clamp()
	case input.Checkpoint:
		b.Checkpoint()
	case input.Edit:
		return b.Edit(it.Action, it.Motion)
	case input.Type:
		b.Type(it.Rune)
	case input.Replace:
		b.Replace(it.Rune, it.Typing, it.Motion)
	case input.Paste:
		return b.Paste(it.Side, it.Register, it.Count)
	case input.Clear:
		b.ClearLine()
	case input.Complete:
		b.Complete(it.Direction)
	case input.Undo:
		b.Undo(it.Count)
	case input.Redo:
		b.Redo(it.Count)
	case input.Mark:
		b.SetMark(it.Rune)
	case input.LineJump:
		return b.JumpLine(it.Rune)
	case input.CharJump:
		return b.JumpChar(it.Rune)
	case input.ModeChange:
		if it.Mode == input.ModeVisual {
			b.StartHighlight()
		}
	}
	return nil
}

// ============================================================================
// Motion resolution
// ============================================================================

// resolve computes the target column of a motion from the cursor.
// The second return is false when the motion cannot be completed
// (character search with too few matches, highlight without an anchor);
// state is untouched in that case.
func (b *TextBuffer) resolve(m input.Motion) (int, bool) {
	cs := Graphemes(b.value)
	n := len(cs)
	x := b.cursor.X

	switch m.Movement {
	case input.MoveChar:
		if m.Direction == input.DirLeft {
			return maxInt(x-m.Count, 0), true
		}
		return minInt(x+m.Count, n), true

	case input.MoveLine:
		switch m.Direction {
		case input.DirLeft:
			return 0, true
		case input.DirRight:
			return n, true
		case input.DirFirstWord:
			for i, c := range cs {
				if classOf(c) != classWhitespace {
					return i, true
				}
			}
			return 0, true
		}
		// Whole-line directions resolve during range derivation.
		return x, true

	case input.MoveWordBegin:
		if m.Direction == input.DirLeft {
			return wordScanLeft(cs, x, m.Count, wordBeginAt), true
		}
		return wordScanRight(cs, x, m.Count, wordBeginAt, n), true

	case input.MoveWordEnd:
		if m.Direction == input.DirLeft {
			return wordScanLeft(cs, x, m.Count, wordEndAt), true
		}
		return wordScanRight(cs, x, m.Count, wordEndAt, maxInt(n-1, 0)), true

	case input.MoveToChar, input.MoveTillChar:
		return charSearch(cs, x, m)

	case input.MoveHighlight:
		if b.anchor == nil {
			return 0, false
		}
		return b.anchor.X, true
	}
	return x, false
}

// wordBeginAt fires where a word or keyword run starts.
func wordBeginAt(cs []string, i int) bool {
	c := classOf(cs[i])
	if c == classWhitespace {
		return false
	}
	return i == 0 || classOf(cs[i-1]) != c
}

// wordEndAt mirrors wordBeginAt on the right side of a run.
func wordEndAt(cs []string, i int) bool {
	c := classOf(cs[i])
	if c == classWhitespace {
		return false
	}
	return i == len(cs)-1 || classOf(cs[i+1]) != c
}

func wordScanRight(cs []string, x, count int, pred func([]string, int) bool, fallback int) int {
	for i := x + 1; i < len(cs); i++ {
		if pred(cs, i) {
			count--
			if count == 0 {
				return i
			}
		}
	}
	return fallback
}

func wordScanLeft(cs []string, x, count int, pred func([]string, int) bool) int {
	for i := x - 1; i >= 0; i-- {
		if pred(cs, i) {
			count--
			if count == 0 {
				return i
			}
		}
	}
	return 0
}

// charSearch finds the count-th occurrence of the motion character. The
// till variant stops one short of the match. Fails when fewer than count
// matches exist.
func charSearch(cs []string, x int, m input.Motion) (int, bool) {
	target := string(m.Char)
	remaining := m.Count
	if m.Direction == input.DirRight {
		for i := x + 1; i < len(cs); i++ {
			if cs[i] == target {
				remaining--
				if remaining == 0 {
					if m.Movement == input.MoveTillChar {
						return i - 1, true
					}
					return i, true
				}
			}
		}
		return 0, false
	}
	for i := x - 1; i >= 0; i-- {
		if cs[i] == target {
			remaining--
			if remaining == 0 {
				if m.Movement == input.MoveTillChar {
					return i + 1, true
				}
				return i, true
			}
		}
	}
	return 0, false
}

// rangeFor derives the half-open operand range [start, end) from a
// resolved target. Inclusive motions bump the end by one cluster.
func (b *TextBuffer) rangeFor(m input.Motion, nc int) (int, int) {
	n := GraphemeCount(b.value)
	if m.Movement == input.MoveLine && (m.Direction == input.DirUp || m.Direction == input.DirDown) {
		return 0, n
	}
	x := b.cursor.X
	if nc < x {
		start, end := nc, x
		if m.Movement == input.MoveHighlight {
			end++
		}
		return start, minInt(end, n)
	}
	start, end := x, nc
	if m.Movement.Inclusive() {
		end++
	}
	return start, minInt(end, n)
}

// ============================================================================
// Operators
// ============================================================================

// Edit applies an operator over a motion. Failed motions abandon the
// operator silently; the buffer and cursor are untouched.
func (b *TextBuffer) Edit(action input.Action, m input.Motion) error {
	nc, ok := b.resolve(m)
	if !ok {
		return nil
	}
	if action != input.ActionMove {
		b.resetCompletion()
	}

	switch action {
	case input.ActionMove:
		if m.Movement == input.MoveHighlight {
			// Swap the cursor with the anchor.
			a := *b.anchor
			*b.anchor = b.cursor
			b.cursor = a
		} else {
			b.resetCompletion()
			b.cursor.X = nc
		}
		b.ensureVisible()
		return nil

	case input.ActionHighlight:
		b.cursor.X = nc
		b.ensureVisible()
		return nil
	}

	start, end := b.rangeFor(m, nc)
	cs := Graphemes(b.value)
	if start > len(cs) {
		start = len(cs)
	}
	if end > len(cs) {
		end = len(cs)
	}
	text := strings.Join(cs[start:end], "")

	switch action {
	case input.ActionDelete:
		b.regs.Update(input.ActionDelete, m.Register, text)
		b.value = strings.Join(cs[:start], "") + strings.Join(cs[end:], "")
		b.cursor.X = start
	case input.ActionYank:
		b.regs.Update(input.ActionYank, m.Register, text)
		b.cursor.X = start
	case input.ActionErase:
		b.erase(cs, start, end)
	case input.ActionToggleCase:
		b.transform(cs, start, end, toggleCluster)
	case input.ActionUppercase:
		b.transform(cs, start, end, toUpperCluster)
	case input.ActionLowercase:
		b.transform(cs, start, end, toLowerCluster)
	}

	if m.Movement == input.MoveHighlight {
		b.anchor = nil
	}
	b.ensureVisible()
	return nil
}

// transform rewrites the range in place with a per-cluster function.
func (b *TextBuffer) transform(cs []string, start, end int, fn func(string) string) {
	for i := start; i < end; i++ {
		cs[i] = fn(cs[i])
	}
	b.value = strings.Join(cs, "")
	if end > start {
		b.cursor.X = start
	}
}

// erase restores the range from the last checkpointed snapshot: clusters
// present in the snapshot come back, clusters typed past its end are
// dropped. This is the REPLACE-mode backspace.
func (b *TextBuffer) erase(cs []string, start, end int) {
	orig := Graphemes(b.history.Current())
	kept := make([]string, 0, len(cs))
	kept = append(kept, cs[:start]...)
	for i := start; i < end; i++ {
		if i < len(orig) {
			kept = append(kept, orig[i])
		}
	}
	kept = append(kept, cs[end:]...)
	b.value = strings.Join(kept, "")
	b.cursor.X = start
}

// Type inserts one character at the cursor.
func (b *TextBuffer) Type(r rune) {
	b.resetCompletion()
	cs := Graphemes(b.value)
	x := minInt(b.cursor.X, len(cs))
	b.value = strings.Join(cs[:x], "") + string(r) + strings.Join(cs[x:], "")
	b.cursor.X = x + 1
	b.insertedRun.WriteRune(r)
	b.ensureVisible()
}

// Replace overwrites characters. With typing=false this is the r
// command: the range must span at least the motion count or the whole
// replace is a no-op. With typing=true one character is always written,
// appending at end of line.
func (b *TextBuffer) Replace(r rune, typing bool, m input.Motion) {
	b.resetCompletion()
	cs := Graphemes(b.value)

	if typing {
		x := minInt(b.cursor.X, len(cs))
		if x == len(cs) {
			b.value = strings.Join(cs, "") + string(r)
		} else {
			cs[x] = string(r)
			b.value = strings.Join(cs, "")
		}
		b.cursor.X = x + 1
		b.ensureVisible()
		return
	}

	nc, ok := b.resolve(m)
	if !ok {
		return
	}
	start, end := b.rangeFor(m, nc)
	if m.Movement != input.MoveHighlight && end-start < m.Count {
		return
	}
	for i := start; i < end && i < len(cs); i++ {
		cs[i] = string(r)
	}
	b.value = strings.Join(cs, "")
	if end > start {
		b.cursor.X = end - 1
	}
	if m.Movement == input.MoveHighlight {
		b.anchor = nil
		b.cursor.X = start
	}
	b.ensureVisible()
}

// Paste inserts register contents count times. Pasting from the
// blackhole register is a no-op; an empty register is a warning and
// leaves state unchanged.
func (b *TextBuffer) Paste(side input.Side, register rune, count int) error {
	if register == input.BlackholeRegister {
		return nil
	}
	content, ok := b.regs.Get(register)
	if !ok || content == "" {
		return EmptyRegisterError{Register: register}
	}
	b.resetCompletion()
	if count < 1 {
		count = 1
	}
	text := strings.Repeat(content, count)

	cs := Graphemes(b.value)
	ip := b.cursor.X
	if side == input.SideAfter {
		ip = minInt(ip+1, len(cs))
	}
	ip = minInt(ip, len(cs))
	b.value = strings.Join(cs[:ip], "") + text + strings.Join(cs[ip:], "")
	b.cursor.X = ip + GraphemeCount(text) - 1
	b.ensureVisible()
	return nil
}

// ClearLine empties the line.
func (b *TextBuffer) ClearLine() {
	b.resetCompletion()
	b.value = ""
	b.cursor = Cursor{}
	b.start = Cursor{}
}

// ============================================================================
// History
// ============================================================================

// Checkpoint snapshots the value into history if it changed since the
// last snapshot, and publishes the insert run to the last-inserted
// register.
func (b *TextBuffer) Checkpoint() {
	if b.insertedRun.Len() > 0 {
		b.regs.SetLastInserted(b.insertedRun.String())
		b.insertedRun.Reset()
	}
	if b.value == b.prev {
		return
	}
	b.history.Append(b.value)
	b.prev = b.value
}

// Undo steps the history backward.
func (b *TextBuffer) Undo(count int) {
	b.resetCompletion()
	b.value = b.history.Prev(maxInt(count, 1))
	b.prev = b.value
	b.Clamp()
}

// Redo steps the history forward.
func (b *TextBuffer) Redo(count int) {
	b.resetCompletion()
	b.value = b.history.Next(maxInt(count, 1))
	b.prev = b.value
	b.Clamp()
}

// Clamp pulls the cursor into normal-mode range and clears the highlight
// anchor. Fired on every entry to normal mode.
func (b *TextBuffer) Clamp() {
	n := GraphemeCount(b.value)
	if n == 0 {
		b.cursor.X = 0
	} else if b.cursor.X >= n {
		b.cursor.X = n - 1
	}
	b.anchor = nil
	b.ensureVisible()
}

// ============================================================================
// Marks
// ============================================================================

// SetMark records the cursor under a lowercase-folded name.
func (b *TextBuffer) SetMark(name rune) {
	b.marks[name] = b.cursor
}

// JumpLine moves to the first non-blank of the marked line.
func (b *TextBuffer) JumpLine(name rune) error {
	if name < 'a' || name > 'z' {
		return UnknownMarkError{Mark: name}
	}
	if _, ok := b.marks[name]; !ok {
		return UnknownMarkError{Mark: name, Known: true}
	}
	return b.Edit(input.ActionMove, input.NewMotion(input.MoveLine, input.DirFirstWord))
}

// JumpChar moves to the marked column.
func (b *TextBuffer) JumpChar(name rune) error {
	if name < 'a' || name > 'z' {
		return UnknownMarkError{Mark: name}
	}
	mark, ok := b.marks[name]
	if !ok {
		return UnknownMarkError{Mark: name, Known: true}
	}
	b.cursor.X = minInt(mark.X, maxInt(GraphemeCount(b.value)-1, 0))
	b.ensureVisible()
	return nil
}

// ============================================================================
// Completion
// ============================================================================

// Complete rotates tab completion. The first invocation captures the
// original text and cursor, scans the word stem left of the cursor, and
// queries the completer for suffixes. The rotation ring has
// len(options)+1 positions; the extra position restores the original.
func (b *TextBuffer) Complete(dir input.CompleteDirection) {
	if !b.comp.active {
		if b.completer == nil {
			return
		}
		cs := Graphemes(b.value)
		end := minInt(b.cursor.X, len(cs))
		start := end
		for start > 0 && isWordCluster(cs[start-1]) {
			start--
		}
		stem := strings.Join(cs[start:end], "")
		options := b.completer(stem)
		b.comp = completionState{
			active:         true,
			options:        options,
			index:          len(options),
			originalText:   b.value,
			originalCursor: b.cursor,
		}
	}

	mod := len(b.comp.options) + 1
	if dir == input.CompleteNext {
		b.comp.index = (b.comp.index + 1) % mod
	} else {
		b.comp.index = (b.comp.index - 1 + mod) % mod
	}

	if b.comp.index == len(b.comp.options) {
		b.value = b.comp.originalText
		b.cursor = b.comp.originalCursor
		b.ensureVisible()
		return
	}

	suffix := b.comp.options[b.comp.index]
	cs := Graphemes(b.comp.originalText)
	x := minInt(b.comp.originalCursor.X, len(cs))
	b.value = strings.Join(cs[:x], "") + suffix + strings.Join(cs[x:], "")
	b.cursor.X = x + GraphemeCount(suffix)
	b.ensureVisible()
}

func (b *TextBuffer) resetCompletion() {
	b.comp = completionState{}
}

// ============================================================================
// Scroll window
// ============================================================================

// ensureVisible keeps start.x <= cursor.x < start.x + width.
func (b *TextBuffer) ensureVisible() {
	if b.width <= 0 {
		return
	}
	if b.cursor.X < b.start.X {
		b.start.X = b.cursor.X
	}
	if b.cursor.X-b.start.X >= b.width {
		b.start.X = b.cursor.X - b.width + 1
	}
}

// VisibleSlice returns the slice of the line inside the scroll window
// and the cursor offset within it, for rendering.
func (b *TextBuffer) VisibleSlice() (string, int) {
	cs := Graphemes(b.value)
	if b.width <= 0 || len(cs) <= b.width {
		return b.value, b.cursor.X
	}
	end := minInt(b.start.X+b.width, len(cs))
	st := minInt(b.start.X, end)
	return strings.Join(cs[st:end], ""), b.cursor.X - st
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
