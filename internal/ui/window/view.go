// Package window manages the tiled pane layout: a sequence of panes,
// each holding a jump list of views, with focus cycling, splits,
// resizing, rotation, and zoom.
package window

// View is a focusable region hosted by a pane: the composition of a chat
// log and an input line bound to one room, or the lobby. Rendering and
// message handling stay with the concrete model; the window layer only
// needs identity and sizing.
type View interface {
	// Name is the short identifier recorded in the % and # registers.
	Name() string
	// Title is the human-readable pane caption.
	Title() string
	// SetSize informs the view of its allotted region.
	SetSize(width, height int)
	// Render draws the view into its region.
	Render() string
}
