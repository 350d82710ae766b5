// Package editor implements the single-line editing core: the text
// buffer with vi motions and operators, the register store, and the
// bounded history list backing undo/redo and pane jump lists.
//
// Cursor columns are grapheme-cluster indices, not byte offsets. A
// cluster may be several runes ("e" + combining accent) and may occupy
// one or two terminal cells (CJK, emoji). The helpers in this file
// translate between the three units.
package editor

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Character classes for word-boundary detection. A motion boundary fires
// where the class changes between adjacent clusters (word<->keyword,
// whitespace->word, whitespace->keyword).
type charClass int

const (
	classWhitespace charClass = iota
	classWord                 // [A-Za-z0-9_] and every non-ASCII rune
	classKeyword              // remaining printable punctuation
)

// Graphemes splits a string into grapheme clusters.
func Graphemes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	state := -1
	for len(s) > 0 {
		cluster, rest, _, newState := uniseg.StepString(s, state)
		out = append(out, cluster)
		s = rest
		state = newState
	}
	return out
}

// GraphemeCount returns the number of grapheme clusters in a string.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// DisplayWidth returns the number of terminal cells the string occupies.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// classOf classifies a cluster by its first rune.
func classOf(cluster string) charClass {
	r := firstRune(cluster)
	switch {
	case r == ' ' || r == '\t':
		return classWhitespace
	case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r > 0x7f:
		return classWord
	default:
		return classKeyword
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// isWordCluster reports whether the cluster belongs to the word class.
// Used by completion stem scanning.
func isWordCluster(cluster string) bool {
	return classOf(cluster) == classWord
}

// toUpperCluster and toLowerCluster case-fold one cluster.
func toUpperCluster(cluster string) string { return strings.ToUpper(cluster) }
func toLowerCluster(cluster string) string { return strings.ToLower(cluster) }

// toggleCluster swaps the case of one cluster.
func toggleCluster(cluster string) string {
	upper := strings.ToUpper(cluster)
	if cluster != upper {
		return upper
	}
	return strings.ToLower(cluster)
}
