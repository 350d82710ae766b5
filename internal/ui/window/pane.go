package window

import (
	"github.com/zjrosen/stanza/internal/editor"
	"github.com/zjrosen/stanza/internal/input"
)

// jumpListSize bounds the per-pane view navigation history.
const jumpListSize = 64

// Pane is one tiled region. It owns a jump list of views and delegates
// rendering and cursor placement to the current one. Focusing a view
// records it in the jump list and updates the buffer-name registers.
type Pane struct {
	jumpList *editor.HistList[View]
	current  View
	regs     *editor.RegisterStore
}

// NewPane creates a pane showing the initial view. The view is appended
// to the jump list and becomes the current buffer name.
func NewPane(v View, regs *editor.RegisterStore) *Pane {
	p := &Pane{
		jumpList: editor.NewHistList[View](jumpListSize),
		regs:     regs,
	}
	p.FocusView(v)
	return p
}

// Current returns the view the pane displays.
func (p *Pane) Current() View { return p.current }

// FocusView appends the view to the jump list and makes it current.
func (p *Pane) FocusView(v View) {
	p.jumpList.Append(v)
	p.setCurrent(v)
}

// FocusHistory steps the jump list. Directions other than next and
// previous are ignored.
func (p *Pane) FocusHistory(dir input.Direction, count int) {
	if count < 1 {
		count = 1
	}
	var v View
	switch dir {
	case input.DirNext:
		v = p.jumpList.Next(count)
	case input.DirPrevious:
		v = p.jumpList.Prev(count)
	default:
		return
	}
	p.setCurrent(v)
}

func (p *Pane) setCurrent(v View) {
	p.current = v
	if p.regs != nil {
		p.regs.SetBufferName(v.Name())
	}
}

// Clone deep-copies the jump list and current pointer. Used by :split so
// the new pane starts on the same view.
func (p *Pane) Clone() *Pane {
	return &Pane{
		jumpList: p.jumpList.Clone(),
		current:  p.current,
		regs:     p.regs,
	}
}
