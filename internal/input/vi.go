package input

import "fmt"

// state is the internal state of the vi machine. Several states are
// transient: they consume exactly one more key and fall back to the state
// that spawned them.
type state int

const (
	stateNormal state = iota
	stateInsert
	stateReplace
	stateVisual
	stateMovement    // operand pending for y/d/c and the case operators
	stateGoto        // after g
	stateCharSearch  // after f F t T
	stateMark        // after m
	stateLineJump    // after '
	stateCharJump    // after `
	stateRegister    // after "
	stateWincmd      // after ^W
	stateCharReplace // after r
	stateVisReplace  // after r in visual
	statePaste       // after ^R in insert or replace
)

func (s state) String() string {
	switch s {
	case stateNormal:
		return "normal"
	case stateInsert:
		return "insert"
	case stateReplace:
		return "replace"
	case stateVisual:
		return "visual"
	case stateMovement:
		return "movement"
	case stateGoto:
		return "goto"
	case stateCharSearch:
		return "charsearch"
	case stateMark:
		return "mark"
	case stateLineJump:
		return "linejump"
	case stateCharJump:
		return "charjump"
	case stateRegister:
		return "register"
	case stateWincmd:
		return "wincmd"
	case stateCharReplace:
		return "charreplace"
	case stateVisReplace:
		return "visreplace"
	case statePaste:
		return "paste"
	}
	return "unknown"
}

// mode maps an internal state to the user-visible mode. Transient states
// present as the mode they were entered from, which Handle tracks via
// returnState.
func (s state) mode() Mode {
	switch s {
	case stateInsert:
		return ModeInsert
	case stateReplace:
		return ModeReplace
	case stateVisual, stateVisReplace:
		return ModeVisual
	default:
		return ModeNormal
	}
}

// ViFSM is the vi keymap state machine. One instance exists per focused
// text buffer; it carries the ambient state that survives between keys
// (count prefix, selected register, last character search, the pending
// operator) and emits intents for the buffer and window manager.
type ViFSM struct {
	state state

	// count is the accumulating decimal prefix. Zero means unspecified;
	// the effective count is then 1.
	count int

	// register is the explicitly selected register, or zero when none.
	register rune

	// Last character search, repeated by ; and ,
	searchChar rune
	searchMove Movement
	searchDir  Direction
	hasSearch  bool

	// pendingSearch is the parameter set of an in-flight f/F/t/T waiting
	// for its target character.
	pendingSearchMove Movement
	pendingSearchDir  Direction

	// Pending operator captured on entry to stateMovement.
	movementAction Action
	movementPost   state
	movementChar   rune

	// returnState is where a transient state falls back to.
	returnState state

	// checkpointPending is set by every mutating action and fired exactly
	// once on the next return to normal.
	checkpointPending bool
}

// NewViFSM returns a machine in normal state.
func NewViFSM() *ViFSM {
	return &ViFSM{state: stateNormal}
}

// Mode returns the user-visible mode of the current state.
func (f *ViFSM) Mode() Mode {
	if f.state == stateNormal || f.isTransient() {
		return f.returnOrNormal().mode()
	}
	return f.state.mode()
}

func (f *ViFSM) isTransient() bool {
	switch f.state {
	case stateGoto, stateCharSearch, stateMark, stateLineJump, stateCharJump,
		stateRegister, stateWincmd, stateCharReplace, stateVisReplace,
		statePaste, stateMovement:
		return true
	}
	return false
}

func (f *ViFSM) returnOrNormal() state {
	if f.isTransient() {
		return f.returnState
	}
	return f.state
}

// Handle interprets one key event in the current state and returns the
// intents it produced, in application order.
func (f *ViFSM) Handle(ev Event) []Intent {
	switch f.state {
	case stateNormal:
		return f.handleNormal(ev)
	case stateInsert:
		return f.handleInsert(ev)
	case stateReplace:
		return f.handleReplace(ev)
	case stateVisual:
		return f.handleVisual(ev)
	case stateMovement:
		return f.handleMovement(ev)
	case stateGoto:
		return f.handleGoto(ev)
	case stateCharSearch:
		return f.handleCharSearch(ev)
	case stateMark:
		return f.handleOneChar(ev, func(ch rune) Intent { return Mark{Rune: lowerRune(ch)} })
	case stateLineJump:
		return f.handleOneChar(ev, func(ch rune) Intent { return LineJump{Rune: lowerRune(ch)} })
	case stateCharJump:
		return f.handleOneChar(ev, func(ch rune) Intent { return CharJump{Rune: lowerRune(ch)} })
	case stateRegister:
		return f.handleRegister(ev)
	case stateWincmd:
		return f.handleWincmd(ev)
	case stateCharReplace:
		return f.handleCharReplace(ev)
	case stateVisReplace:
		return f.handleVisReplace(ev)
	case statePaste:
		return f.handlePaste(ev)
	}
	return f.unknown(ev)
}

// ============================================================================
// Shared helpers
// ============================================================================

// takeCount consumes the accumulated count prefix, defaulting to 1.
func (f *ViFSM) takeCount() int {
	c := f.count
	f.count = 0
	if c < 1 {
		return 1
	}
	return c
}

// takeRegister consumes the selected register, defaulting to unnamed.
func (f *ViFSM) takeRegister() rune {
	r := f.register
	f.register = 0
	if r == 0 {
		return UnnamedRegister
	}
	return r
}

// enterNormal transitions to normal and emits the state-entry side
// effects: clamp always, checkpoint once if pending, then the mode
// notification.
func (f *ViFSM) enterNormal(out []Intent) []Intent {
	prev := f.Mode()
	f.state = stateNormal
	f.count = 0
	f.register = 0
	out = append(out, Clamp{})
	if f.checkpointPending {
		f.checkpointPending = false
		out = append(out, Checkpoint{})
	}
	if prev != ModeNormal {
		out = append(out, ModeChange{Mode: ModeNormal})
	}
	return out
}

func (f *ViFSM) enter(s state, out []Intent) []Intent {
	prev := f.Mode()
	f.state = s
	if m := s.mode(); m != prev {
		out = append(out, ModeChange{Mode: m})
	}
	return out
}

func (f *ViFSM) unknown(ev Event) []Intent {
	msg := fmt.Sprintf("Not yet implemented in %s mode: %s", f.state, ev.Name())
	out := []Intent{Warn{Message: msg}}
	if f.isTransient() {
		// An unhandled key abandons the transient state.
		ret := f.returnState
		f.clearPending()
		if ret == stateNormal {
			return f.enterNormal(out)
		}
		f.state = ret
	}
	return out
}

func (f *ViFSM) clearPending() {
	f.movementChar = 0
	f.movementAction = ActionMove
	f.movementPost = stateNormal
}

// accumulateDigit folds a digit key into the count prefix. Returns false
// for '0' with no count, which is the line-start motion instead.
func (f *ViFSM) accumulateDigit(ch rune) bool {
	if ch == '0' && f.count == 0 {
		return false
	}
	f.count = f.count*10 + int(ch-'0')
	return true
}

// motionForKey resolves a plain motion key. The second return is false if
// the key is not a motion; the third is true when the key started a
// character search and the motion will complete in stateCharSearch.
func (f *ViFSM) motionForKey(ev Event) (Motion, bool, bool) {
	count := f.count
	if ev.Kind == KindSpecial {
		switch ev.Special {
		case SpecialLeft:
			return NewMotion(MoveChar, DirLeft).WithCount(count), true, false
		case SpecialRight:
			return NewMotion(MoveChar, DirRight).WithCount(count), true, false
		case SpecialHome:
			return NewMotion(MoveLine, DirLeft), true, false
		case SpecialEnd:
			return NewMotion(MoveLine, DirRight), true, false
		}
		return Motion{}, false, false
	}
	if ev.Kind != KindPress {
		return Motion{}, false, false
	}
	switch ev.Rune {
	case 'h':
		return NewMotion(MoveChar, DirLeft).WithCount(count), true, false
	case 'l', ' ':
		return NewMotion(MoveChar, DirRight).WithCount(count), true, false
	case 'w':
		return NewMotion(MoveWordBegin, DirRight).WithCount(count), true, false
	case 'b':
		return NewMotion(MoveWordBegin, DirLeft).WithCount(count), true, false
	case 'e':
		return NewMotion(MoveWordEnd, DirRight).WithCount(count), true, false
	case '0':
		return NewMotion(MoveLine, DirLeft), true, false
	case '$':
		return NewMotion(MoveLine, DirRight), true, false
	case '^':
		return NewMotion(MoveLine, DirFirstWord), true, false
	case 'f':
		f.pendingSearchMove, f.pendingSearchDir = MoveToChar, DirRight
		return Motion{}, true, true
	case 'F':
		f.pendingSearchMove, f.pendingSearchDir = MoveToChar, DirLeft
		return Motion{}, true, true
	case 't':
		f.pendingSearchMove, f.pendingSearchDir = MoveTillChar, DirRight
		return Motion{}, true, true
	case 'T':
		f.pendingSearchMove, f.pendingSearchDir = MoveTillChar, DirLeft
		return Motion{}, true, true
	case ';':
		if !f.hasSearch {
			return Motion{Movement: MoveToChar}, true, false
		}
		return NewMotion(f.searchMove, f.searchDir).WithChar(f.searchChar).WithCount(count), true, false
	case ',':
		if !f.hasSearch {
			return Motion{Movement: MoveToChar}, true, false
		}
		return NewMotion(f.searchMove, reverse(f.searchDir)).WithChar(f.searchChar).WithCount(count), true, false
	}
	return Motion{}, false, false
}

func reverse(d Direction) Direction {
	switch d {
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	}
	return d
}

func lowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

// finishMotion dispatches a completed motion: as the operand of a pending
// operator, as a highlight extension in visual, or as a bare move.
func (f *ViFSM) finishMotion(m Motion, out []Intent) []Intent {
	f.count = 0
	if m.Char == 0 && (m.Movement == MoveToChar || m.Movement == MoveTillChar) {
		// ; or , with no remembered search. Abandons any pending operator.
		out = append(out, Warn{Message: "No previous character search"})
		if f.state == stateMovement || (f.isTransient() && f.returnState == stateMovement) {
			f.clearPending()
			return f.enterNormal(out)
		}
		f.state = f.returnOrNormal()
		return out
	}
	switch f.returnOrNormal() {
	case stateMovement, stateNormal:
		if f.state == stateMovement || (f.isTransient() && f.returnState == stateMovement) {
			action := f.movementAction
			post := f.movementPost
			m = m.WithRegister(f.takeRegister())
			f.clearPending()
			out = append(out, Edit{Action: action, Motion: m})
			if action != ActionMove && action != ActionYank {
				f.checkpointPending = true
			}
			if post == stateInsert {
				f.state = stateInsert
				return append(out, ModeChange{Mode: ModeInsert})
			}
			return f.enterNormal(out)
		}
		f.state = stateNormal
		return append(out, Edit{Action: ActionMove, Motion: m.WithRegister(f.takeRegister())})
	case stateVisual:
		f.state = stateVisual
		return append(out, Edit{Action: ActionHighlight, Motion: m})
	}
	return out
}

// ============================================================================
// Normal
// ============================================================================

func (f *ViFSM) handleNormal(ev Event) []Intent {
	// Control chords first.
	if ev.Kind == KindControl {
		switch ev.Ctrl {
		case 'c':
			if f.count == 0 && f.register == 0 {
				return []Intent{Warn{Message: "Type :quit<Enter> to exit"}}
			}
			f.count = 0
			f.register = 0
			return nil
		case '[':
			return f.enterNormal(nil)
		case 'w':
			f.returnState = stateNormal
			f.state = stateWincmd
			return nil
		case 'r':
			return []Intent{Redo{Count: f.takeCount()}}
		case 'f':
			return []Intent{Scroll{Direction: DirDown, Kind: ScrollScreen, Count: f.takeCount()}}
		case 'b':
			return []Intent{Scroll{Direction: DirUp, Kind: ScrollScreen, Count: f.takeCount()}}
		case 'e':
			return []Intent{Scroll{Direction: DirDown, Kind: ScrollLine, Count: f.takeCount()}}
		case 'y':
			return []Intent{Scroll{Direction: DirUp, Kind: ScrollLine, Count: f.takeCount()}}
		case 'l':
			return []Intent{Refresh{}}
		case 'z':
			return []Intent{Suspend{}}
		case 'm', 'j':
			return []Intent{Submit{}}
		}
		return f.unknown(ev)
	}

	if ev.Kind == KindSpecial {
		switch ev.Special {
		case SpecialUp:
			return []Intent{Focus{Target: FocusHistory, Direction: DirPrevious, Count: f.takeCount()}}
		case SpecialDown:
			return []Intent{Focus{Target: FocusHistory, Direction: DirNext, Count: f.takeCount()}}
		case SpecialPageUp:
			return []Intent{Scroll{Direction: DirUp, Kind: ScrollScreen, Count: f.takeCount()}}
		case SpecialPageDown:
			return []Intent{Scroll{Direction: DirDown, Kind: ScrollScreen, Count: f.takeCount()}}
		case SpecialDelete:
			out := []Intent{Edit{
				Action: ActionDelete,
				Motion: NewMotion(MoveChar, DirRight).WithCount(f.count).WithRegister(f.takeRegister()),
			}}
			f.checkpointPending = true
			f.count = 0
			return out
		}
	}

	// Digits accumulate; bare 0 is a motion.
	if ev.Kind == KindPress && ev.Rune >= '0' && ev.Rune <= '9' {
		if f.accumulateDigit(ev.Rune) {
			return nil
		}
	}

	if m, ok, pending := f.motionForKey(ev); ok {
		if pending {
			f.returnState = stateNormal
			f.state = stateCharSearch
			return nil
		}
		return f.finishMotion(m, nil)
	}

	if ev.Kind != KindPress {
		return f.unknown(ev)
	}

	switch ev.Rune {
	case 'i':
		return f.enter(stateInsert, nil)
	case 'I':
		out := f.enter(stateInsert, nil)
		return append(out, Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirFirstWord)})
	case 'a':
		out := f.enter(stateInsert, nil)
		return append(out, Edit{Action: ActionMove, Motion: NewMotion(MoveChar, DirRight)})
	case 'A':
		out := f.enter(stateInsert, nil)
		return append(out, Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirRight)})
	case 'v':
		return f.enter(stateVisual, nil)
	case 'R':
		return f.enter(stateReplace, nil)
	case 'y':
		f.startOperator(ActionYank, stateNormal, 'y')
		return nil
	case 'd':
		f.startOperator(ActionDelete, stateNormal, 'd')
		return nil
	case 'c':
		f.startOperator(ActionDelete, stateInsert, 'c')
		return nil
	case 'D':
		return f.operatorToEOL(ActionDelete, stateNormal)
	case 'C':
		return f.operatorToEOL(ActionDelete, stateInsert)
	case 'Y':
		return f.operatorToEOL(ActionYank, stateNormal)
	case 'x':
		out := []Intent{Edit{
			Action: ActionDelete,
			Motion: NewMotion(MoveChar, DirRight).WithCount(f.count).WithRegister(f.takeRegister()),
		}}
		f.checkpointPending = true
		f.count = 0
		return out
	case 'X':
		out := []Intent{Edit{
			Action: ActionDelete,
			Motion: NewMotion(MoveChar, DirLeft).WithCount(f.count).WithRegister(f.takeRegister()),
		}}
		f.checkpointPending = true
		f.count = 0
		return out
	case '~':
		out := []Intent{Edit{
			Action: ActionToggleCase,
			Motion: NewMotion(MoveChar, DirRight).WithCount(f.count),
		}}
		f.checkpointPending = true
		f.count = 0
		return out
	case 'p':
		f.checkpointPending = true
		return []Intent{Paste{Side: SideAfter, Register: f.takeRegister(), Count: f.takeCount()}}
	case 'P':
		f.checkpointPending = true
		return []Intent{Paste{Side: SideBefore, Register: f.takeRegister(), Count: f.takeCount()}}
	case 'u':
		return []Intent{Undo{Count: f.takeCount()}}
	case '"':
		f.returnState = stateNormal
		f.state = stateRegister
		return nil
	case 'r':
		f.returnState = stateNormal
		f.state = stateCharReplace
		return nil
	case 'm':
		f.returnState = stateNormal
		f.state = stateMark
		return nil
	case '\'':
		f.returnState = stateNormal
		f.state = stateLineJump
		return nil
	case '`':
		f.returnState = stateNormal
		f.state = stateCharJump
		return nil
	case 'g':
		f.returnState = stateNormal
		f.state = stateGoto
		return nil
	case ':':
		return []Intent{Focus{Target: FocusCommand}}
	case 'G':
		return []Intent{Scroll{Direction: DirDown, Kind: ScrollBottom, Count: 1}}
	}
	return f.unknown(ev)
}

func (f *ViFSM) startOperator(action Action, post state, ch rune) {
	f.movementAction = action
	f.movementPost = post
	f.movementChar = ch
	f.returnState = stateNormal
	f.state = stateMovement
}

// operatorToEOL implements the D/C/Y shorthands: operator over a
// line-right motion.
func (f *ViFSM) operatorToEOL(action Action, post state) []Intent {
	m := NewMotion(MoveLine, DirRight).WithRegister(f.takeRegister())
	out := []Intent{Edit{Action: action, Motion: m}}
	f.count = 0
	if action != ActionYank {
		f.checkpointPending = true
	}
	if post == stateInsert {
		return f.enter(stateInsert, out)
	}
	return out
}

// ============================================================================
// Insert and Replace
// ============================================================================

func (f *ViFSM) handleInsert(ev Event) []Intent {
	switch ev.Kind {
	case KindPress:
		f.checkpointPending = true
		return []Intent{Type{Rune: ev.Rune}}
	case KindControl:
		switch ev.Ctrl {
		case '[', 'c':
			return f.enterNormal(nil)
		case 'h':
			f.checkpointPending = true
			return []Intent{Edit{
				Action: ActionDelete,
				Motion: NewMotion(MoveChar, DirLeft).WithRegister(BlackholeRegister),
			}}
		case 'w':
			f.checkpointPending = true
			return []Intent{Edit{
				Action: ActionDelete,
				Motion: NewMotion(MoveWordBegin, DirLeft).WithRegister(BlackholeRegister),
			}}
		case 'u':
			f.checkpointPending = true
			return []Intent{Clear{}}
		case 'r':
			f.returnState = stateInsert
			f.state = statePaste
			return nil
		case 'i':
			return []Intent{Complete{Direction: CompleteNext}}
		case 'm', 'j':
			return []Intent{Submit{}}
		case 'a':
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirLeft)}}
		case 'e':
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirRight)}}
		}
		return f.unknown(ev)
	case KindSpecial:
		switch ev.Special {
		case SpecialBackspace:
			f.checkpointPending = true
			return []Intent{Edit{
				Action: ActionDelete,
				Motion: NewMotion(MoveChar, DirLeft).WithRegister(BlackholeRegister),
			}}
		case SpecialDelete:
			f.checkpointPending = true
			return []Intent{Edit{
				Action: ActionDelete,
				Motion: NewMotion(MoveChar, DirRight).WithRegister(BlackholeRegister),
			}}
		case SpecialTab:
			if ev.Mods&ModShift != 0 {
				return []Intent{Complete{Direction: CompletePrevious}}
			}
			return []Intent{Complete{Direction: CompleteNext}}
		case SpecialLeft:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveChar, DirLeft)}}
		case SpecialRight:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveChar, DirRight)}}
		case SpecialHome:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirLeft)}}
		case SpecialEnd:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveLine, DirRight)}}
		}
	}
	return f.unknown(ev)
}

func (f *ViFSM) handleReplace(ev Event) []Intent {
	switch ev.Kind {
	case KindPress:
		f.checkpointPending = true
		return []Intent{Replace{
			Rune:   ev.Rune,
			Typing: true,
			Motion: NewMotion(MoveChar, DirRight),
		}}
	case KindControl:
		switch ev.Ctrl {
		case '[', 'c':
			return f.enterNormal(nil)
		case 'r':
			f.returnState = stateReplace
			f.state = statePaste
			return nil
		case 'm', 'j':
			return []Intent{Submit{}}
		}
		return f.unknown(ev)
	case KindSpecial:
		switch ev.Special {
		case SpecialBackspace:
			return []Intent{Edit{Action: ActionErase, Motion: NewMotion(MoveChar, DirLeft)}}
		case SpecialLeft:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveChar, DirLeft)}}
		case SpecialRight:
			return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveChar, DirRight)}}
		}
	}
	return f.unknown(ev)
}

// ============================================================================
// Visual
// ============================================================================

func (f *ViFSM) handleVisual(ev Event) []Intent {
	if ev.Kind == KindControl {
		switch ev.Ctrl {
		case '[', 'c':
			return f.enterNormal(nil)
		}
		return f.unknown(ev)
	}

	if ev.Kind == KindPress && ev.Rune >= '0' && ev.Rune <= '9' {
		if f.accumulateDigit(ev.Rune) {
			return nil
		}
	}

	if m, ok, pending := f.motionForKey(ev); ok {
		if pending {
			f.returnState = stateVisual
			f.state = stateCharSearch
			return nil
		}
		return f.finishMotion(m, nil)
	}

	if ev.Kind != KindPress {
		return f.unknown(ev)
	}

	highlight := func() Motion {
		return NewMotion(MoveHighlight, DirNone).WithRegister(f.takeRegister())
	}

	switch ev.Rune {
	case 'v':
		return f.enterNormal(nil)
	case 'o':
		return []Intent{Edit{Action: ActionMove, Motion: NewMotion(MoveHighlight, DirNone)}}
	case 'd', 'x':
		f.checkpointPending = true
		out := []Intent{Edit{Action: ActionDelete, Motion: highlight()}}
		return f.enterNormal(out)
	case 'y':
		out := []Intent{Edit{Action: ActionYank, Motion: highlight()}}
		return f.enterNormal(out)
	case 'c':
		f.checkpointPending = true
		out := []Intent{Edit{Action: ActionDelete, Motion: highlight()}}
		return f.enter(stateInsert, out)
	case '~':
		f.checkpointPending = true
		out := []Intent{Edit{Action: ActionToggleCase, Motion: highlight()}}
		return f.enterNormal(out)
	case 'u':
		f.checkpointPending = true
		out := []Intent{Edit{Action: ActionLowercase, Motion: highlight()}}
		return f.enterNormal(out)
	case 'U':
		f.checkpointPending = true
		out := []Intent{Edit{Action: ActionUppercase, Motion: highlight()}}
		return f.enterNormal(out)
	case 'r':
		f.returnState = stateVisual
		f.state = stateVisReplace
		return nil
	case '"':
		f.returnState = stateVisual
		f.state = stateRegister
		return nil
	}
	return f.unknown(ev)
}

// ============================================================================
// Movement (operator pending)
// ============================================================================

func (f *ViFSM) handleMovement(ev Event) []Intent {
	if ev.Kind == KindControl {
		switch ev.Ctrl {
		case '[', 'c':
			f.clearPending()
			return f.enterNormal(nil)
		}
		return f.unknown(ev)
	}

	if ev.Kind == KindPress && ev.Rune >= '0' && ev.Rune <= '9' {
		if f.accumulateDigit(ev.Rune) {
			return nil
		}
	}

	// Doubled operator key selects the whole line: dd, yy, cc, gUU, ...
	if ev.Kind == KindPress && ev.Rune == f.movementChar {
		m := NewMotion(MoveLine, DirDown).WithCount(f.count)
		f.returnState = stateMovement
		return f.finishMotion(m, nil)
	}

	if m, ok, pending := f.motionForKey(ev); ok {
		if pending {
			f.returnState = stateMovement
			f.state = stateCharSearch
			return nil
		}
		f.returnState = stateMovement
		return f.finishMotion(m, nil)
	}
	return f.unknown(ev)
}

// ============================================================================
// Goto (g prefix)
// ============================================================================

func (f *ViFSM) handleGoto(ev Event) []Intent {
	f.state = f.returnState
	if ev.Kind != KindPress {
		f.state = stateGoto
		return f.unknown(ev)
	}
	switch ev.Rune {
	case 'u':
		f.startOperator(ActionLowercase, stateNormal, 'u')
		return nil
	case 'U':
		f.startOperator(ActionUppercase, stateNormal, 'U')
		return nil
	case '~':
		f.startOperator(ActionToggleCase, stateNormal, '~')
		return nil
	case 'g':
		return []Intent{Scroll{Direction: DirUp, Kind: ScrollTop, Count: 1}}
	}
	f.state = stateGoto
	return f.unknown(ev)
}

// ============================================================================
// Character search
// ============================================================================

func (f *ViFSM) handleCharSearch(ev Event) []Intent {
	if ev.Kind != KindPress {
		ret := f.returnState
		if ev.Kind == KindControl && (ev.Ctrl == '[' || ev.Ctrl == 'c') {
			f.state = ret
			if ret == stateNormal || ret == stateMovement {
				f.clearPending()
				return f.enterNormal(nil)
			}
			return nil
		}
		return f.unknown(ev)
	}
	f.searchChar = ev.Rune
	f.searchMove = f.pendingSearchMove
	f.searchDir = f.pendingSearchDir
	f.hasSearch = true
	m := NewMotion(f.searchMove, f.searchDir).WithChar(ev.Rune).WithCount(f.count)
	return f.finishMotion(m, nil)
}

// ============================================================================
// One-shot character states (mark, linejump, charjump)
// ============================================================================

func (f *ViFSM) handleOneChar(ev Event, build func(rune) Intent) []Intent {
	if ev.Kind != KindPress {
		return f.unknown(ev)
	}
	f.state = f.returnState
	return []Intent{build(ev.Rune)}
}

// ============================================================================
// Register select
// ============================================================================

func isRegisterName(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	switch ch {
	case '.', ':', '%', '#', '/', '_', '"', '=', '-':
		return true
	}
	return false
}

func (f *ViFSM) handleRegister(ev Event) []Intent {
	if ev.Kind != KindPress || !isRegisterName(ev.Rune) {
		return f.unknown(ev)
	}
	f.register = ev.Rune
	f.state = f.returnState
	return nil
}

// ============================================================================
// Window command (^W prefix)
// ============================================================================

func (f *ViFSM) handleWincmd(ev Event) []Intent {
	leave := func(out []Intent) []Intent {
		f.state = stateNormal
		return out
	}

	if ev.Kind == KindControl {
		switch ev.Ctrl {
		case '[', 'c':
			return leave(nil)
		case 'w':
			return leave([]Intent{Focus{Target: FocusWindow, Direction: DirNext, Count: f.takeCount()}})
		}
		return f.unknown(ev)
	}

	if ev.Kind == KindSpecial {
		switch ev.Special {
		case SpecialUp:
			return leave([]Intent{Focus{Target: FocusWindow, Direction: DirUp, Count: f.takeCount()}})
		case SpecialDown:
			return leave([]Intent{Focus{Target: FocusWindow, Direction: DirDown, Count: f.takeCount()}})
		case SpecialLeft:
			return leave([]Intent{Focus{Target: FocusWindow, Direction: DirLeft, Count: f.takeCount()}})
		case SpecialRight:
			return leave([]Intent{Focus{Target: FocusWindow, Direction: DirRight, Count: f.takeCount()}})
		}
		return f.unknown(ev)
	}

	if ev.Rune >= '0' && ev.Rune <= '9' {
		if f.accumulateDigit(ev.Rune) {
			return nil
		}
	}

	switch ev.Rune {
	case 'h':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirLeft, Count: f.takeCount()}})
	case 'j':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirDown, Count: f.takeCount()}})
	case 'k':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirUp, Count: f.takeCount()}})
	case 'l':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirRight, Count: f.takeCount()}})
	case 'w':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirNext, Count: f.takeCount()}})
	case 'W':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirPrevious, Count: f.takeCount()}})
	case 't':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirTop, Count: f.takeCount()}})
	case 'b':
		return leave([]Intent{Focus{Target: FocusWindow, Direction: DirBottom, Count: f.takeCount()}})
	case 's':
		return leave([]Intent{Window{Action: WinSplit, Direction: DirDown, Count: f.takeCount()}})
	case 'v':
		return leave([]Intent{Window{Action: WinSplit, Direction: DirRight, Count: f.takeCount()}})
	case '+':
		return leave([]Intent{Window{Action: WinResize, Direction: DirDown, Count: f.takeCount()}})
	case '-':
		return leave([]Intent{Window{Action: WinResize, Direction: DirUp, Count: f.takeCount()}})
	case '>':
		return leave([]Intent{Window{Action: WinResize, Direction: DirRight, Count: f.takeCount()}})
	case '<':
		return leave([]Intent{Window{Action: WinResize, Direction: DirLeft, Count: f.takeCount()}})
	case '=':
		return leave([]Intent{Window{Action: WinEqualize, Count: f.takeCount()}})
	case 'r':
		return leave([]Intent{Window{Action: WinRotate, Direction: DirDown, Count: f.takeCount()}})
	case 'R':
		return leave([]Intent{Window{Action: WinRotate, Direction: DirUp, Count: f.takeCount()}})
	case 'z':
		return leave([]Intent{Window{Action: WinZoom, Count: f.takeCount()}})
	}
	return f.unknown(ev)
}

// ============================================================================
// Character replace (r and visual r)
// ============================================================================

func (f *ViFSM) handleCharReplace(ev Event) []Intent {
	if ev.Kind == KindControl && (ev.Ctrl == '[' || ev.Ctrl == 'c') {
		return f.enterNormal(nil)
	}
	if ev.Kind != KindPress {
		return f.unknown(ev)
	}
	f.checkpointPending = true
	out := []Intent{Replace{
		Rune:   ev.Rune,
		Typing: false,
		Motion: NewMotion(MoveChar, DirRight).WithCount(f.count),
	}}
	f.count = 0
	return f.enterNormal(out)
}

func (f *ViFSM) handleVisReplace(ev Event) []Intent {
	if ev.Kind == KindControl && (ev.Ctrl == '[' || ev.Ctrl == 'c') {
		f.state = stateVisual
		return nil
	}
	if ev.Kind != KindPress {
		return f.unknown(ev)
	}
	f.checkpointPending = true
	out := []Intent{Replace{
		Rune:   ev.Rune,
		Typing: false,
		Motion: NewMotion(MoveHighlight, DirNone),
	}}
	return f.enterNormal(out)
}

// ============================================================================
// Register paste (^R in insert/replace)
// ============================================================================

func (f *ViFSM) handlePaste(ev Event) []Intent {
	if ev.Kind == KindControl && (ev.Ctrl == '[' || ev.Ctrl == 'c') {
		f.state = f.returnState
		return nil
	}
	if ev.Kind != KindPress || !isRegisterName(ev.Rune) {
		return f.unknown(ev)
	}
	f.state = f.returnState
	f.checkpointPending = true
	return []Intent{Paste{Side: SideBefore, Register: ev.Rune, Count: 1}}
}
