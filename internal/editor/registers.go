package editor

import (
	"sort"

	"github.com/zjrosen/stanza/internal/input"
)

// RegisterStore holds the named, numbered, and special registers with
// vi's update rules. One store exists per process; the buffer writes it
// on yank and delete, the command interpreter on ':' executions.
//
// Register classes:
//
//	_        blackhole, writes discarded
//	"        unnamed, implicit default for yank and delete
//	0        most recent yank
//	1-9      delete ring, most recent first
//	-        last sub-line delete
//	a-z      named, overwrite; A-Z append to the lowercase counterpart
//	. : / % # =  set only through the dedicated setters
type RegisterStore struct {
	regs map[rune]string
}

// RegisterEntry is one row of a register dump.
type RegisterEntry struct {
	Name  rune
	Value string
}

// NewRegisterStore returns an empty store.
func NewRegisterStore() *RegisterStore {
	return &RegisterStore{regs: make(map[rune]string)}
}

// immutable registers are ignored by Update; their dedicated setters are
// the only write path.
func immutableRegister(name rune) bool {
	switch name {
	case '.', ':', '/', '%', '#', '=':
		return true
	}
	return false
}

// Update applies the write rules for an operator writing value through
// register name. The action decides how the unnamed register distributes
// the value: yanks update the yank slot, deletes push the delete ring.
func (s *RegisterStore) Update(action input.Action, name rune, value string) {
	switch {
	case name == input.BlackholeRegister:
		return
	case immutableRegister(name):
		return
	case name == input.UnnamedRegister:
		if action == input.ActionYank {
			s.regs['0'] = value
		} else {
			for slot := rune('9'); slot > '1'; slot-- {
				if v, ok := s.regs[slot-1]; ok {
					s.regs[slot] = v
				} else {
					delete(s.regs, slot)
				}
			}
			s.regs['1'] = value
			s.regs['-'] = value
		}
	case name >= 'A' && name <= 'Z':
		lower := name - 'A' + 'a'
		s.regs[lower] += value
		value = s.regs[lower]
	default:
		s.regs[name] = value
	}
	s.regs[input.UnnamedRegister] = value
}

// Get reads a register. Uppercase names fold to their lowercase
// counterpart. The second return is false when the register has never
// been written.
func (s *RegisterStore) Get(name rune) (string, bool) {
	if name >= 'A' && name <= 'Z' {
		name = name - 'A' + 'a'
	}
	v, ok := s.regs[name]
	return v, ok
}

// SetLastInserted records the text of the last insert run (register .).
func (s *RegisterStore) SetLastInserted(text string) { s.regs['.'] = text }

// SetLastCommand records the last executed ':' command (register :).
func (s *RegisterStore) SetLastCommand(cmd string) { s.regs[':'] = cmd }

// SetLastSearch records the last search pattern (register /).
func (s *RegisterStore) SetLastSearch(pattern string) { s.regs['/'] = pattern }

// SetBufferName records the current buffer name in % and shifts the old
// value into the alternate register #.
func (s *RegisterStore) SetBufferName(name string) {
	if cur, ok := s.regs['%']; ok {
		s.regs['#'] = cur
	}
	s.regs['%'] = name
}

// Dump returns the present registers in display order: the yank slot 0
// first, then the delete ring 1-9, then the remaining registers by
// lexicographic key.
func (s *RegisterStore) Dump() []RegisterEntry {
	out := make([]RegisterEntry, 0, len(s.regs))
	emitted := make(map[rune]bool)
	emit := func(name rune) {
		if v, ok := s.regs[name]; ok && !emitted[name] {
			out = append(out, RegisterEntry{Name: name, Value: v})
			emitted[name] = true
		}
	}

	emit('0')
	for slot := rune('1'); slot <= '9'; slot++ {
		emit(slot)
	}

	rest := make([]rune, 0, len(s.regs))
	for name := range s.regs {
		if !emitted[name] {
			rest = append(rest, name)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, name := range rest {
		emit(name)
	}
	return out
}
