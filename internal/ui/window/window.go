package window

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stanza/internal/input"
)

// MinPaneHeight is the smallest height a pane may be laid out at.
const MinPaneHeight = 4

// Warnings surfaced on the status line by the caller.
var (
	ErrNotEnoughRoom  = errors.New("Not enough room")
	ErrVerticalSplits = errors.New("Vertical splits not yet supported")
	ErrLastPane       = errors.New("closing last pane")
)

// slot pairs a pane with its optional fixed size. A zero height means
// the pane shares the flexible remainder.
type slot struct {
	pane   *Pane
	height int
	width  int
}

// Window is the tree of panes. Two states: tile lays panes out as a
// horizontal-split stack; zoom gives the focused pane the whole region.
type Window struct {
	panes  []slot
	index  int
	zoomed bool

	width  int
	height int
}

// New creates a window holding a single pane.
func New(p *Pane) *Window {
	return &Window{panes: []slot{{pane: p}}}
}

// SetSize sets the laid-out region.
func (w *Window) SetSize(width, height int) {
	w.width = width
	w.height = height
	w.layout()
}

// Focused returns the focused pane.
func (w *Window) Focused() *Pane { return w.panes[w.index].pane }

// Index returns the focused pane index.
func (w *Window) Index() int { return w.index }

// Len returns the pane count.
func (w *Window) Len() int { return len(w.panes) }

// Zoomed reports whether the window is in zoom state.
func (w *Window) Zoomed() bool { return w.zoomed }

// ToggleZoom flips between tile and zoom.
func (w *Window) ToggleZoom() {
	w.zoomed = !w.zoomed
	w.layout()
}

// Focus moves pane focus. With a count above one, next and previous jump
// to the absolute index min(count, n)-1; with a count of one or less they
// cycle to the adjacent pane, so a count of one does not jump to index 0.
// Up and down clamp index+-count into range. Left and right are
// unsupported while vertical splits do not exist.
func (w *Window) Focus(dir input.Direction, count int) error {
	n := len(w.panes)
	switch dir {
	case input.DirNext:
		if count > 1 {
			w.index = minInt(count, n) - 1
		} else {
			w.index = (w.index + 1) % n
		}
	case input.DirPrevious:
		if count > 1 {
			w.index = minInt(count, n) - 1
		} else {
			w.index = (w.index - 1 + n) % n
		}
	case input.DirTop:
		w.index = 0
	case input.DirBottom:
		w.index = n - 1
	case input.DirUp:
		w.index = maxInt(w.index-maxInt(count, 1), 0)
	case input.DirDown:
		w.index = minInt(w.index+maxInt(count, 1), n-1)
	case input.DirLeft, input.DirRight:
		return ErrVerticalSplits
	}
	return nil
}

// HSplit inserts a clone of the focused pane above it. The split is
// refused when the window cannot give every pane the minimum height.
// A positive height fixes the new pane's size.
func (w *Window) HSplit(height int) error {
	if w.height/(len(w.panes)+1) < MinPaneHeight {
		return ErrNotEnoughRoom
	}
	if height > 0 && height < MinPaneHeight {
		height = MinPaneHeight
	}
	clone := slot{pane: w.Focused().Clone(), height: height}
	w.panes = append(w.panes[:w.index], append([]slot{clone}, w.panes[w.index:]...)...)
	w.layout()
	return nil
}

// VSplit is not supported.
func (w *Window) VSplit() error {
	return ErrVerticalSplits
}

// HResize adjusts the focused pane's fixed height by delta, floored at
// the minimum.
func (w *Window) HResize(delta int) {
	s := &w.panes[w.index]
	cur := s.height
	if cur == 0 {
		cur = w.layoutHeight(w.index)
	}
	s.height = maxInt(cur+delta, MinPaneHeight)
	w.layout()
}

// EResize clears every fixed size, returning to equal distribution.
func (w *Window) EResize() {
	for i := range w.panes {
		w.panes[i].height = 0
		w.panes[i].width = 0
	}
	w.layout()
}

// Rotate shifts the pane list by k positions; focus follows its pane.
func (w *Window) Rotate(dir input.Direction, k int) {
	n := len(w.panes)
	if n == 0 {
		return
	}
	k = ((k % n) + n) % n
	if k == 0 {
		return
	}
	if dir == input.DirUp {
		k = n - k
	}
	rotated := make([]slot, 0, n)
	rotated = append(rotated, w.panes[n-k:]...)
	rotated = append(rotated, w.panes[:n-k]...)
	w.panes = rotated
	w.index = (w.index + k) % n
	w.layout()
}

// CloseCurrent removes the focused pane. Returns ErrLastPane when the
// removed pane was the only one; the caller exits the process then.
func (w *Window) CloseCurrent() error {
	if len(w.panes) == 1 {
		return ErrLastPane
	}
	w.panes = append(w.panes[:w.index], w.panes[w.index+1:]...)
	if w.index >= len(w.panes) {
		w.index = len(w.panes) - 1
	}
	w.layout()
	return nil
}

// Panes returns the panes in layout order.
func (w *Window) Panes() []*Pane {
	out := make([]*Pane, len(w.panes))
	for i := range w.panes {
		out[i] = w.panes[i].pane
	}
	return out
}

// ============================================================================
// Layout
// ============================================================================

// layoutHeight returns the height pane i receives under the current
// layout.
func (w *Window) layoutHeight(i int) int {
	heights := w.heights()
	if i < 0 || i >= len(heights) {
		return 0
	}
	return heights[i]
}

// heights distributes the window height: fixed panes keep their size,
// the flexible ones share the remainder, every pane floored to the
// minimum. In zoom state the focused pane takes everything.
func (w *Window) heights() []int {
	n := len(w.panes)
	out := make([]int, n)
	if w.zoomed {
		out[w.index] = w.height
		return out
	}
	flexible := 0
	remaining := w.height
	for i, s := range w.panes {
		if s.height > 0 {
			out[i] = maxInt(s.height, MinPaneHeight)
			remaining -= out[i]
		} else {
			flexible++
		}
	}
	if flexible == 0 {
		return out
	}
	share := remaining / flexible
	extra := remaining - share*flexible
	for i := range out {
		if out[i] == 0 {
			h := share
			if extra > 0 {
				h++
				extra--
			}
			out[i] = maxInt(h, MinPaneHeight)
		}
	}
	return out
}

func (w *Window) layout() {
	if w.width == 0 && w.height == 0 {
		return
	}
	heights := w.heights()
	for i, s := range w.panes {
		if heights[i] > 0 {
			s.pane.Current().SetSize(w.width, heights[i])
		}
	}
}

// Render draws the window: the zoomed pane alone, or the tile stack
// joined vertically.
func (w *Window) Render() string {
	if w.zoomed {
		return w.Focused().Current().Render()
	}
	parts := make([]string, 0, len(w.panes))
	for _, s := range w.panes {
		parts = append(parts, s.pane.Current().Render())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Short title list for debugging and tests.
func (w *Window) titles() string {
	var b strings.Builder
	for i, s := range w.panes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.pane.Current().Name())
	}
	return b.String()
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
