package input

// Intent is a single semantic editing command emitted by a state machine.
// The set of implementations is closed; consumers switch over the concrete
// types. Intents produced by one key event are applied in order before the
// next key event is interpreted.
type Intent interface{ intent() }

// Clamp asks the buffer to pull the cursor back into normal-mode range
// and drop any highlight anchor. Emitted on every entry to normal.
type Clamp struct{}

// Checkpoint asks the buffer to snapshot its value into undo history if
// it changed since the last snapshot. Emitted once on return to normal
// after any mutating action.
type Checkpoint struct{}

// Edit applies an operator over a motion.
// Action is one of move, highlight, delete, yank, erase, togglecase,
// uppercase, lowercase.
type Edit struct {
	Action Action
	Motion Motion
}

// Type inserts a single character at the cursor.
type Type struct {
	Rune rune
}

// Replace overwrites characters. Typing is true for REPLACE-mode typing
// and false for the r command.
type Replace struct {
	Rune   rune
	Typing bool
	Motion Motion
}

// Side says whether a paste lands before or after the cursor.
type Side int

const (
	SideBefore Side = iota
	SideAfter
)

// Paste inserts register contents Count times at the cursor.
type Paste struct {
	Side     Side
	Register rune
	Count    int
}

// ScrollKind is the unit a Scroll intent moves by.
type ScrollKind int

const (
	ScrollScreen ScrollKind = iota
	ScrollLine
	ScrollChar
	ScrollTop
	ScrollBottom
)

// Scroll moves the focused view's log.
type Scroll struct {
	Direction Direction
	Kind      ScrollKind
	Count     int
}

// Mark records the current position under a lowercase-folded name.
type Mark struct{ Rune rune }

// LineJump jumps to a marked line.
type LineJump struct{ Rune rune }

// CharJump jumps to a marked position.
type CharJump struct{ Rune rune }

// FocusTarget names what a Focus intent gives input focus to.
type FocusTarget int

const (
	FocusCommand FocusTarget = iota
	FocusLobby
	FocusWindow
	FocusHistory
)

// Focus moves input focus between the command bar, the lobby, window
// panes, and the pane jump history.
type Focus struct {
	Target    FocusTarget
	Direction Direction
	Count     int
}

// WindowAction is the window-management operation of a Window intent.
type WindowAction int

const (
	WinSplit WindowAction = iota
	WinResize
	WinRotate
	WinEqualize
	WinZoom
)

// Window manipulates the pane layout.
type Window struct {
	Action    WindowAction
	Direction Direction
	Count     int
}

// Submit sends the current buffer line to its consumer.
type Submit struct{}

// Clear empties the current buffer line.
type Clear struct{}

// Suspend pauses the UI and hands the terminal to a subprocess or SIGTSTP.
type Suspend struct{}

// Refresh forces a full redraw.
type Refresh struct{}

// CompleteDirection steps the completion ring forward or backward.
type CompleteDirection int

const (
	CompleteNext CompleteDirection = iota
	CompletePrevious
)

// Complete rotates tab completion.
type Complete struct{ Direction CompleteDirection }

// Undo steps the buffer history backward Count times.
type Undo struct{ Count int }

// Redo steps the buffer history forward Count times.
type Redo struct{ Count int }

// Warn surfaces a transient message on the status line.
type Warn struct{ Message string }

// Switch leaves the command bar back to the focused pane. Emitted only by
// the SimpleFSM.
type Switch struct{}

// ModeChange notifies observers (the status line) that the vi mode
// changed. Emitted on state entry, not per keystroke.
type ModeChange struct{ Mode Mode }

func (Clamp) intent()      {}
func (Checkpoint) intent() {}
func (Edit) intent()       {}
func (Type) intent()       {}
func (Replace) intent()    {}
func (Paste) intent()      {}
func (Scroll) intent()     {}
func (Mark) intent()       {}
func (LineJump) intent()   {}
func (CharJump) intent()   {}
func (Focus) intent()      {}
func (Window) intent()     {}
func (Submit) intent()     {}
func (Clear) intent()      {}
func (Suspend) intent()    {}
func (Refresh) intent()    {}
func (Complete) intent()   {}
func (Undo) intent()       {}
func (Redo) intent()       {}
func (Warn) intent()       {}
func (Switch) intent()     {}
func (ModeChange) intent() {}
