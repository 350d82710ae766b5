// Package input interprets terminal key events into editing intents.
//
// The package has two halves: an event vocabulary (Event, Motion, Intent)
// shared with the consumers in internal/editor and internal/ui, and the
// state machines (ViFSM, SimpleFSM) that translate key events into intent
// streams. The state machines never touch buffer or window state; they
// only describe what should happen.
package input

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// EventKind discriminates the three classes of key events.
type EventKind int

const (
	// KindPress is a printable character keypress.
	KindPress EventKind = iota
	// KindControl is a control chord such as ^C or ^[.
	KindControl
	// KindSpecial is a non-printable key: arrows, home/end, page keys, delete.
	KindSpecial
)

// SpecialKey names the non-printable keys the FSMs understand.
type SpecialKey int

const (
	SpecialNone SpecialKey = iota
	SpecialUp
	SpecialDown
	SpecialLeft
	SpecialRight
	SpecialHome
	SpecialEnd
	SpecialPageUp
	SpecialPageDown
	SpecialDelete
	SpecialBackspace
	SpecialTab
	SpecialEnter
)

// Mod is a bitmask of key modifiers on special keys.
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
)

// Event is a single decoded terminal key event.
type Event struct {
	Kind    EventKind
	Rune    rune       // printable character for KindPress
	Ctrl    rune       // chord letter for KindControl: 'c' for ^C, '[' for ^[
	Special SpecialKey // key name for KindSpecial
	Mods    Mod
}

// Press builds a printable-character event.
func Press(r rune) Event { return Event{Kind: KindPress, Rune: r} }

// Control builds a control-chord event. The rune is the chord letter,
// lowercase for letters: Control('c') is ^C.
func Control(r rune) Event { return Event{Kind: KindControl, Ctrl: r} }

// Special builds a special-key event with optional modifiers.
func Special(k SpecialKey, mods Mod) Event {
	return Event{Kind: KindSpecial, Special: k, Mods: mods}
}

// Name returns a human-readable key name for warning messages.
func (e Event) Name() string {
	switch e.Kind {
	case KindPress:
		return string(e.Rune)
	case KindControl:
		return "^" + string(toUpper(e.Ctrl))
	case KindSpecial:
		names := map[SpecialKey]string{
			SpecialUp:        "<up>",
			SpecialDown:      "<down>",
			SpecialLeft:      "<left>",
			SpecialRight:     "<right>",
			SpecialHome:      "<home>",
			SpecialEnd:       "<end>",
			SpecialPageUp:    "<pageup>",
			SpecialPageDown:  "<pagedown>",
			SpecialDelete:    "<delete>",
			SpecialBackspace: "<backspace>",
			SpecialTab:       "<tab>",
			SpecialEnter:     "<enter>",
		}
		if n, ok := names[e.Special]; ok {
			if e.Mods&ModShift != 0 {
				return "<shift+" + n[1:]
			}
			return n
		}
		return "<special>"
	}
	return fmt.Sprintf("<%v>", e.Kind)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// FromKeyMsg decodes a bubbletea key message into an Event.
// Returns false for key types the input core does not handle
// (function keys, unparsed escape sequences, multi-rune paste chunks).
func FromKeyMsg(msg tea.KeyMsg) (Event, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return Event{}, false
		}
		return Press(msg.Runes[0]), true
	case tea.KeySpace:
		return Press(' '), true
	case tea.KeyEscape:
		return Control('['), true
	case tea.KeyEnter:
		return Control('m'), true
	case tea.KeyBackspace:
		return Special(SpecialBackspace, 0), true
	case tea.KeyDelete:
		return Special(SpecialDelete, 0), true
	case tea.KeyTab:
		return Control('i'), true
	case tea.KeyShiftTab:
		return Special(SpecialTab, ModShift), true
	case tea.KeyUp:
		return Special(SpecialUp, 0), true
	case tea.KeyDown:
		return Special(SpecialDown, 0), true
	case tea.KeyLeft:
		return Special(SpecialLeft, 0), true
	case tea.KeyRight:
		return Special(SpecialRight, 0), true
	case tea.KeyShiftUp:
		return Special(SpecialUp, ModShift), true
	case tea.KeyShiftDown:
		return Special(SpecialDown, ModShift), true
	case tea.KeyShiftLeft:
		return Special(SpecialLeft, ModShift), true
	case tea.KeyShiftRight:
		return Special(SpecialRight, ModShift), true
	case tea.KeyHome:
		return Special(SpecialHome, 0), true
	case tea.KeyEnd:
		return Special(SpecialEnd, 0), true
	case tea.KeyPgUp:
		return Special(SpecialPageUp, 0), true
	case tea.KeyPgDown:
		return Special(SpecialPageDown, 0), true
	case tea.KeyCtrlA:
		return Control('a'), true
	case tea.KeyCtrlB:
		return Control('b'), true
	case tea.KeyCtrlC:
		return Control('c'), true
	case tea.KeyCtrlD:
		return Control('d'), true
	case tea.KeyCtrlE:
		return Control('e'), true
	case tea.KeyCtrlF:
		return Control('f'), true
	case tea.KeyCtrlH:
		return Control('h'), true
	case tea.KeyCtrlJ:
		return Control('j'), true
	case tea.KeyCtrlL:
		return Control('l'), true
	case tea.KeyCtrlN:
		return Control('n'), true
	case tea.KeyCtrlP:
		return Control('p'), true
	case tea.KeyCtrlR:
		return Control('r'), true
	case tea.KeyCtrlU:
		return Control('u'), true
	case tea.KeyCtrlW:
		return Control('w'), true
	case tea.KeyCtrlZ:
		return Control('z'), true
	}
	return Event{}, false
}
