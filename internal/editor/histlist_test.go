package editor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHistList_AppendAndCurrent(t *testing.T) {
	h := NewHistList[string](8)
	h.Append("a")
	require.Equal(t, "a", h.Current())
	require.Equal(t, 1, h.Len())
	require.Equal(t, 0, h.Ptr())

	h.Append("b")
	require.Equal(t, "b", h.Current())
	require.Equal(t, 2, h.Len())
	require.Equal(t, 1, h.Ptr())
}

func TestHistList_AppendTruncatesSuffix(t *testing.T) {
	h := NewHistList[string](8)
	h.Append("a")
	h.Append("b")
	h.Append("c")

	require.Equal(t, "a", h.Prev(2))
	h.Append("x")

	require.Equal(t, 2, h.Len(), "b and c should be dropped")
	require.Equal(t, "x", h.Current())
	require.Equal(t, "a", h.Prev(1))
	require.Equal(t, "x", h.Next(5), "next saturates at the new last element")
}

func TestHistList_AppendAtCapacityDropsOldest(t *testing.T) {
	h := NewHistList[string](3)
	h.Append("a")
	h.Append("b")
	h.Append("c")
	require.Equal(t, 2, h.Ptr())

	h.Append("d")
	require.Equal(t, 3, h.Len())
	require.Equal(t, 2, h.Ptr(), "ptr stays on the last index")
	require.Equal(t, "d", h.Current())
	require.Equal(t, "b", h.Prev(5), "oldest element was dropped")
}

func TestHistList_NextPrevSaturate(t *testing.T) {
	h := NewHistList[int](8)
	h.Append(1)
	h.Append(2)
	h.Append(3)

	require.Equal(t, 1, h.Prev(100))
	require.Equal(t, 1, h.Prev(1))
	require.Equal(t, 3, h.Next(100))
	require.Equal(t, 3, h.Next(1))
}

func TestHistList_Clone(t *testing.T) {
	h := NewHistList[string](8)
	h.Append("a")
	h.Append("b")
	h.Prev(1)

	c := h.Clone()
	require.Equal(t, h.Ptr(), c.Ptr())
	require.Equal(t, "a", c.Current())

	c.Append("z")
	require.Equal(t, "a", h.Current(), "clone mutations must not leak back")
	require.Equal(t, 2, h.Len())
}

func TestHistList_EmptyNavigationPanics(t *testing.T) {
	h := NewHistList[string](4)
	require.Panics(t, func() { h.Current() })
	require.Panics(t, func() { h.Next(1) })
	require.Panics(t, func() { h.Prev(1) })
}

// Property: for any ptr < len-1, append leaves len = ptr+2 and ptr = ptr+1.
func TestHistList_AppendProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := NewHistList[int](64)
		seed := rapid.SliceOfN(rapid.Int(), 1, 32).Draw(t, "seed")
		for _, v := range seed {
			h.Append(v)
		}
		back := rapid.IntRange(0, h.Len()-1).Draw(t, "back")
		if back > 0 {
			h.Prev(back)
		}
		ptr := h.Ptr()
		if ptr >= h.Len()-1 {
			return
		}
		h.Append(12345)
		require.Equal(t, ptr+2, h.Len())
		require.Equal(t, ptr+1, h.Ptr())
		require.Equal(t, 12345, h.Current())
	})
}
