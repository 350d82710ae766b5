package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/stanza/internal/input"
)

// newBuffer builds a buffer holding value with the cursor at x.
func newBuffer(t require.TestingT, value string, x int) (*TextBuffer, *RegisterStore) {
	regs := NewRegisterStore()
	b := NewTextBuffer(regs)
	for _, r := range value {
		b.Type(r)
	}
	b.Checkpoint()
	b.Clamp()
	b.cursor.X = x
	return b, regs
}

func move(movement input.Movement, dir input.Direction) input.Motion {
	return input.NewMotion(movement, dir)
}

func TestBuffer_CharMotion(t *testing.T) {
	b, _ := newBuffer(t, "abcdef", 0)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveChar, input.DirRight).WithCount(3)))
	require.Equal(t, 3, b.Cursor().X)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveChar, input.DirLeft).WithCount(10)))
	require.Equal(t, 0, b.Cursor().X, "leftward char motion saturates at zero")

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveChar, input.DirRight).WithCount(100)))
	require.Equal(t, 6, b.Cursor().X, "rightward char motion clamps to len")
	require.Equal(t, "abcdef", b.Value())
}

func TestBuffer_LineMotions(t *testing.T) {
	b, _ := newBuffer(t, "   lead and trail", 8)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirLeft)))
	require.Equal(t, 0, b.Cursor().X)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirFirstWord)))
	require.Equal(t, 3, b.Cursor().X, "first-word lands on the first non-space")

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirRight)))
	require.Equal(t, GraphemeCount(b.Value()), b.Cursor().X)
}

func TestBuffer_WordMotions(t *testing.T) {
	tests := []struct {
		name  string
		value string
		x     int
		m     input.Motion
		want  int
	}{
		{"w to next word", "hello world", 0, move(input.MoveWordBegin, input.DirRight), 6},
		{"w over punctuation", "foo.bar", 0, move(input.MoveWordBegin, input.DirRight), 3},
		{"w from punctuation", "foo.bar", 3, move(input.MoveWordBegin, input.DirRight), 4},
		{"2w", "one two three", 0, move(input.MoveWordBegin, input.DirRight).WithCount(2), 8},
		{"w at end lands at len", "one", 0, move(input.MoveWordBegin, input.DirRight), 3},
		{"b to word start", "hello world", 8, move(input.MoveWordBegin, input.DirLeft), 6},
		{"b to line start", "hello", 3, move(input.MoveWordBegin, input.DirLeft), 0},
		{"e to word end", "hello world", 0, move(input.MoveWordEnd, input.DirRight), 4},
		{"2e", "one two three", 0, move(input.MoveWordEnd, input.DirRight).WithCount(2), 6},
		{"e at end stops on last char", "one two", 6, move(input.MoveWordEnd, input.DirRight), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBuffer(t, tt.value, tt.x)
			require.NoError(t, b.Edit(input.ActionMove, tt.m))
			require.Equal(t, tt.want, b.Cursor().X)
			require.Equal(t, tt.value, b.Value(), "bare motions never change the value")
		})
	}
}

func TestBuffer_CharSearch(t *testing.T) {
	b, _ := newBuffer(t, "abcXefX", 0)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveToChar, input.DirRight).WithChar('X')))
	require.Equal(t, 3, b.Cursor().X)

	// Second match with a count of 2 from the start.
	b.cursor.X = 0
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveToChar, input.DirRight).WithChar('X').WithCount(2)))
	require.Equal(t, 6, b.Cursor().X)

	// No third match: the motion fails, cursor untouched.
	b.cursor.X = 0
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveToChar, input.DirRight).WithChar('X').WithCount(3)))
	require.Equal(t, 0, b.Cursor().X)

	// till stops short of the match.
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveTillChar, input.DirRight).WithChar('X')))
	require.Equal(t, 2, b.Cursor().X)

	// Leftward till lands after the match.
	b.cursor.X = 6
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveTillChar, input.DirLeft).WithChar('X')))
	require.Equal(t, 4, b.Cursor().X)
}

// For any value and count, a successful to-char motion lands on the
// count-th occurrence; otherwise the cursor does not move.
func TestBuffer_ToCharProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.StringOfN(rapid.RuneFrom([]rune("abcX ")), 1, 24, -1).Draw(t, "value")
		count := rapid.IntRange(1, 4).Draw(t, "count")
		b, _ := newBuffer(t, value, 0)

		before := b.Cursor().X
		require.NoError(t, b.Edit(input.ActionMove, move(input.MoveToChar, input.DirRight).WithChar('X').WithCount(count)))

		cs := Graphemes(value)
		matches := 0
		landed := -1
		for i := before + 1; i < len(cs); i++ {
			if cs[i] == "X" {
				matches++
				if matches == count {
					landed = i
					break
				}
			}
		}
		if landed == -1 {
			require.Equal(t, before, b.Cursor().X, "failed motion leaves the cursor")
		} else {
			require.Equal(t, landed, b.Cursor().X)
		}
	})
}

func TestBuffer_DeleteWord(t *testing.T) {
	b, regs := newBuffer(t, "hello world", 0)

	require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveWordBegin, input.DirRight)))
	require.Equal(t, "world", b.Value())
	require.Equal(t, 0, b.Cursor().X)

	v, _ := regs.Get('"')
	require.Equal(t, "hello ", v)
	v, _ = regs.Get('1')
	require.Equal(t, "hello ", v)
}

func TestBuffer_DeleteInclusiveMotion(t *testing.T) {
	b, regs := newBuffer(t, "abcXef", 0)

	// dfX deletes through the match, inclusive.
	require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveToChar, input.DirRight).WithChar('X')))
	require.Equal(t, "ef", b.Value())
	v, _ := regs.Get('"')
	require.Equal(t, "abcX", v)
}

func TestBuffer_DeleteWholeLine(t *testing.T) {
	b, regs := newBuffer(t, "whole line", 4)

	require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveLine, input.DirDown)))
	require.Equal(t, "", b.Value())
	require.Equal(t, 0, b.Cursor().X)
	v, _ := regs.Get('"')
	require.Equal(t, "whole line", v)
}

func TestBuffer_FailedMotionAbandonsOperator(t *testing.T) {
	b, regs := newBuffer(t, "no match here", 0)

	require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveToChar, input.DirRight).WithChar('Z')))
	require.Equal(t, "no match here", b.Value())
	require.Equal(t, 0, b.Cursor().X)
	_, ok := regs.Get('"')
	require.False(t, ok, "abandoned operator must not touch registers")
}

func TestBuffer_YankLeavesValue(t *testing.T) {
	b, regs := newBuffer(t, "one two three", 0)

	require.NoError(t, b.Edit(input.ActionYank, move(input.MoveWordBegin, input.DirRight).WithRegister('a')))
	require.Equal(t, "one two three", b.Value())
	require.Equal(t, 0, b.Cursor().X)

	v, _ := regs.Get('a')
	require.Equal(t, "one ", v)
	_, hasYankSlot := regs.Get('0')
	require.False(t, hasYankSlot, "named yank must not touch the yank slot")
}

func TestBuffer_PasteAfterAtLineEnd(t *testing.T) {
	b, _ := newBuffer(t, "one two three", 0)
	require.NoError(t, b.Edit(input.ActionYank, move(input.MoveWordBegin, input.DirRight).WithRegister('a')))

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirRight)))
	require.NoError(t, b.Paste(input.SideAfter, 'a', 1))
	require.Equal(t, "one two threeone ", b.Value())
}

func TestBuffer_PasteBeforeWithCount(t *testing.T) {
	b, _ := newBuffer(t, "ab", 1)
	b.regs.Update(input.ActionYank, '"', "xy")

	require.NoError(t, b.Paste(input.SideBefore, '"', 2))
	require.Equal(t, "axyxyb", b.Value())
	require.Equal(t, 4, b.Cursor().X, "cursor rests on the last pasted cluster")
}

func TestBuffer_PasteEmptyAndBlackhole(t *testing.T) {
	b, _ := newBuffer(t, "abc", 0)

	err := b.Paste(input.SideAfter, 'q', 1)
	var empty EmptyRegisterError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, "Nothing in register q", err.Error())
	require.Equal(t, "abc", b.Value())

	require.NoError(t, b.Paste(input.SideAfter, '_', 1), "blackhole paste is a silent no-op")
	require.Equal(t, "abc", b.Value())
}

func TestBuffer_YankPasteRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.StringOfN(rapid.RuneFrom([]rune("abc def")), 2, 16, -1).Draw(t, "value")
		b, _ := newBuffer(t, value, 0)
		x := rapid.IntRange(1, GraphemeCount(value)-1).Draw(t, "x")
		b.cursor.X = x

		// Yank leftward to line start, paste back before the cursor.
		require.NoError(t, b.Edit(input.ActionYank, move(input.MoveLine, input.DirLeft)))
		yanked, _ := b.regs.Get('"')
		b.cursor.X = x
		require.NoError(t, b.Paste(input.SideBefore, '"', 1))

		cs := Graphemes(value)
		want := strings.Join(cs[:x], "") + yanked + strings.Join(cs[x:], "")
		require.Equal(t, want, b.Value())
	})
}

func TestBuffer_ReplaceChar(t *testing.T) {
	b, _ := newBuffer(t, "abcdef", 1)

	b.Replace('x', false, move(input.MoveChar, input.DirRight).WithCount(3))
	require.Equal(t, "axxxef", b.Value())
	require.Equal(t, 3, b.Cursor().X, "cursor rests on the last replaced cluster")
}

func TestBuffer_ReplaceCharShortRangeIsNoop(t *testing.T) {
	b, _ := newBuffer(t, "abc", 1)

	b.Replace('x', false, move(input.MoveChar, input.DirRight).WithCount(5))
	require.Equal(t, "abc", b.Value())
	require.Equal(t, 1, b.Cursor().X)
}

func TestBuffer_ReplaceTyping(t *testing.T) {
	b, _ := newBuffer(t, "ab", 0)

	b.Replace('x', true, move(input.MoveChar, input.DirRight))
	b.Replace('y', true, move(input.MoveChar, input.DirRight))
	require.Equal(t, "xy", b.Value())
	require.Equal(t, 2, b.Cursor().X)

	// At end of line typing appends.
	b.Replace('z', true, move(input.MoveChar, input.DirRight))
	require.Equal(t, "xyz", b.Value())
}

func TestBuffer_EraseRestoresCheckpoint(t *testing.T) {
	b, _ := newBuffer(t, "abc", 0)

	// Overwrite like REPLACE mode, then backspace twice.
	b.Replace('x', true, move(input.MoveChar, input.DirRight))
	b.Replace('y', true, move(input.MoveChar, input.DirRight))
	b.Replace('z', true, move(input.MoveChar, input.DirRight))
	b.Replace('w', true, move(input.MoveChar, input.DirRight))
	require.Equal(t, "xyzw", b.Value())

	require.NoError(t, b.Edit(input.ActionErase, move(input.MoveChar, input.DirLeft)))
	require.Equal(t, "xyz", b.Value(), "typed-past-end character is dropped")

	require.NoError(t, b.Edit(input.ActionErase, move(input.MoveChar, input.DirLeft)))
	require.Equal(t, "xyc", b.Value(), "original character comes back")
	require.Equal(t, 2, b.Cursor().X)
}

func TestBuffer_CaseOperators(t *testing.T) {
	b, _ := newBuffer(t, "MiXed up", 0)

	require.NoError(t, b.Edit(input.ActionToggleCase, move(input.MoveWordBegin, input.DirRight)))
	require.Equal(t, "mIxED up", b.Value())

	require.NoError(t, b.Edit(input.ActionUppercase, move(input.MoveLine, input.DirDown)))
	require.Equal(t, "MIXED UP", b.Value())

	require.NoError(t, b.Edit(input.ActionLowercase, move(input.MoveLine, input.DirDown)))
	require.Equal(t, "mixed up", b.Value())
}

func TestBuffer_HighlightOperators(t *testing.T) {
	b, regs := newBuffer(t, "hello world", 0)

	b.StartHighlight()
	require.NoError(t, b.Edit(input.ActionHighlight, move(input.MoveChar, input.DirRight).WithCount(4)))
	require.Equal(t, 4, b.Cursor().X)
	require.NotNil(t, b.Anchor())

	// Swap ends of the selection.
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveHighlight, input.DirNone)))
	require.Equal(t, 0, b.Cursor().X)
	require.Equal(t, 4, b.Anchor().X)
	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveHighlight, input.DirNone)))

	// Delete the selection, inclusive on the right.
	require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveHighlight, input.DirNone)))
	require.Equal(t, " world", b.Value())
	require.Nil(t, b.Anchor(), "operators over the selection clear the anchor")
	v, _ := regs.Get('"')
	require.Equal(t, "hello", v)
}

func TestBuffer_UndoRedo(t *testing.T) {
	regs := NewRegisterStore()
	b := NewTextBuffer(regs)

	for _, r := range "hello" {
		b.Type(r)
	}
	b.Checkpoint()
	require.Equal(t, "hello", b.Value())

	b.Undo(1)
	require.Equal(t, "", b.Value())
	require.Equal(t, 0, b.Cursor().X)

	b.Redo(1)
	require.Equal(t, "hello", b.Value())
}

func TestBuffer_UndoRedoMultipleSteps(t *testing.T) {
	b, _ := newBuffer(t, "one", 3)

	for _, r := range " two" {
		b.Type(r)
	}
	b.Checkpoint()
	for _, r := range " three" {
		b.Type(r)
	}
	b.Checkpoint()
	require.Equal(t, "one two three", b.Value())

	b.Undo(2)
	require.Equal(t, "one", b.Value())
	b.Redo(1)
	require.Equal(t, "one two", b.Value())
}

func TestBuffer_CheckpointOnlyOnChange(t *testing.T) {
	b, _ := newBuffer(t, "same", 0)
	len1 := b.history.Len()
	b.Checkpoint()
	require.Equal(t, len1, b.history.Len(), "unchanged value must not snapshot")
}

func TestBuffer_DeleteUndoRestores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.StringOfN(rapid.RuneFrom([]rune("ab cd")), 1, 20, -1).Draw(t, "value")
		b, _ := newBuffer(t, value, 0)

		require.NoError(t, b.Edit(input.ActionDelete, move(input.MoveWordBegin, input.DirRight)))
		b.Checkpoint()
		b.Undo(1)
		require.Equal(t, value, b.Value())
	})
}

func TestBuffer_LastInsertedRegister(t *testing.T) {
	b, regs := newBuffer(t, "", 0)
	for _, r := range "typed" {
		b.Type(r)
	}
	b.Checkpoint()

	v, _ := regs.Get('.')
	require.Equal(t, "typed", v)
}

func TestBuffer_Clamp(t *testing.T) {
	b, _ := newBuffer(t, "abc", 0)
	b.cursor.X = 3
	b.StartHighlight()

	b.Clamp()
	require.Equal(t, 2, b.Cursor().X)
	require.Nil(t, b.Anchor())

	empty := NewTextBuffer(NewRegisterStore())
	empty.Clamp()
	require.Equal(t, 0, empty.Cursor().X)
}

func TestBuffer_Completion(t *testing.T) {
	b, _ := newBuffer(t, "hi al", 5)
	b.SetCompleter(func(stem string) []string {
		require.Equal(t, "al", stem)
		return []string{"ice", "fred"}
	})

	b.Complete(input.CompleteNext)
	require.Equal(t, "hi alice", b.Value())
	require.Equal(t, 8, b.Cursor().X)

	b.Complete(input.CompleteNext)
	require.Equal(t, "hi alfred", b.Value())

	// Third step is the "no completion" slot: original text restored.
	b.Complete(input.CompleteNext)
	require.Equal(t, "hi al", b.Value())
	require.Equal(t, 5, b.Cursor().X)

	// Previous from original wraps to the last option.
	b.Complete(input.CompletePrevious)
	require.Equal(t, "hi alfred", b.Value())
}

func TestBuffer_CompletionResetOnEdit(t *testing.T) {
	b, _ := newBuffer(t, "al", 2)
	calls := 0
	b.SetCompleter(func(string) []string {
		calls++
		return []string{"pha"}
	})

	b.Complete(input.CompleteNext)
	require.Equal(t, "alpha", b.Value())

	b.Type('!')
	b.Complete(input.CompleteNext)
	require.Equal(t, 2, calls, "an edit restarts the completion capture")
}

func TestBuffer_Marks(t *testing.T) {
	b, _ := newBuffer(t, "hello world", 6)
	b.SetMark('a')
	b.cursor.X = 0

	require.NoError(t, b.JumpChar('a'))
	require.Equal(t, 6, b.Cursor().X)

	err := b.JumpChar('z')
	require.EqualError(t, err, "Mark not set")

	err = b.JumpChar('9')
	require.EqualError(t, err, "Unknown mark: 9")
}

func TestBuffer_ScrollWindowInvariant(t *testing.T) {
	b, _ := newBuffer(t, strings.Repeat("x", 40), 0)
	b.SetWidth(10)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirRight)))
	require.LessOrEqual(t, b.Start().X, b.Cursor().X)
	require.Less(t, b.Cursor().X-b.Start().X, 10)

	// The cursor sits one past the last cluster, so the window holds nine
	// clusters and the cursor cell.
	visible, cursor := b.VisibleSlice()
	require.Equal(t, 9, GraphemeCount(visible))
	require.Less(t, cursor, 10)

	require.NoError(t, b.Edit(input.ActionMove, move(input.MoveLine, input.DirLeft)))
	require.Equal(t, 0, b.Start().X)
}
