// Package command interprets ':' command lines into typed actions the
// application executes. Unknown commands warn with a fuzzy suggestion.
package command

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Action is the result of interpreting a command line. The application
// switches over the concrete types.
type Action interface{ action() }

// OpenDirect opens a direct chat with a user.
type OpenDirect struct{ User string }

// JoinRoom opens a conference room.
type JoinRoom struct{ Room string }

// Split performs a horizontal split of the focused pane.
type Split struct{}

// VSplit requests a vertical split, which currently warns.
type VSplit struct{}

// Quit closes the focused pane, exiting the process from the last one.
type Quit struct{}

// QuitAll exits the process.
type QuitAll struct{}

// Shell pauses the UI and spawns $SHELL.
type Shell struct{}

// DumpRegisters prints the register contents into the lobby.
type DumpRegisters struct{}

// Help prints the command list, or help for one command.
type Help struct{ Topic string }

func (OpenDirect) action()    {}
func (JoinRoom) action()      {}
func (Split) action()         {}
func (VSplit) action()        {}
func (Quit) action()          {}
func (QuitAll) action()       {}
func (Shell) action()         {}
func (DumpRegisters) action() {}
func (Help) action()          {}

// UnknownCommandError reports a command that resolves to nothing. The
// suggestion, when present, is the closest known command by edit
// distance.
type UnknownCommandError struct {
	Cmd        string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("Not a client command: %s (did you mean :%s?)", e.Cmd, e.Suggestion)
	}
	return fmt.Sprintf("Not a client command: %s", e.Cmd)
}

// UsageError reports a command invoked with the wrong argument count.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "Usage: :" + e.Usage
}

// spec describes one command.
type spec struct {
	name    string
	aliases []string
	minArgs int
	maxArgs int
	usage   string
	help    string
	build   func(args []string) Action
}

var table = []spec{
	{
		name: "dm", minArgs: 1, maxArgs: 1, usage: "dm <user>",
		help:  "open a direct chat with <user>",
		build: func(args []string) Action { return OpenDirect{User: args[0]} },
	},
	{
		name: "join", minArgs: 1, maxArgs: 1, usage: "join <room>",
		help:  "open the conference room <room>",
		build: func(args []string) Action { return JoinRoom{Room: args[0]} },
	},
	{
		name: "split", aliases: []string{"sp"}, usage: "split",
		help:  "split the focused pane horizontally",
		build: func([]string) Action { return Split{} },
	},
	{
		name: "vsplit", aliases: []string{"vsp"}, usage: "vsplit",
		help:  "split the focused pane vertically",
		build: func([]string) Action { return VSplit{} },
	},
	{
		name: "quit", aliases: []string{"q", "Q"}, usage: "quit",
		help:  "close the focused pane, exit when it is the last",
		build: func([]string) Action { return Quit{} },
	},
	{
		name: "qall", aliases: []string{"qa", "Qa"}, usage: "qall",
		help:  "exit the process",
		build: func([]string) Action { return QuitAll{} },
	},
	{
		name: "shell", aliases: []string{"sh", "Sh"}, usage: "shell",
		help:  "pause the interface and spawn $SHELL",
		build: func([]string) Action { return Shell{} },
	},
	{
		name: "registers", aliases: []string{"reg", "register"}, usage: "registers",
		help:  "dump the registers into the lobby",
		build: func([]string) Action { return DumpRegisters{} },
	},
	{
		name: "help", aliases: []string{"h"}, maxArgs: 1, usage: "help [command]",
		help: "print the command list, or help for one command",
		build: func(args []string) Action {
			if len(args) == 1 {
				return Help{Topic: args[0]}
			}
			return Help{}
		},
	},
}

// Interpret parses one command line. The leading ':' and surrounding
// spaces are stripped; arguments are whitespace-split. An empty line
// resolves to nil, nil.
func Interpret(line string) (Action, error) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if line == "" {
		return nil, nil
	}
	argv := strings.Fields(line)
	name, args := argv[0], argv[1:]

	s, ok := lookup(name)
	if !ok {
		return nil, &UnknownCommandError{Cmd: name, Suggestion: suggest(name)}
	}
	if len(args) < s.minArgs || len(args) > s.maxArgs {
		return nil, &UsageError{Usage: s.usage}
	}
	return s.build(args), nil
}

func lookup(name string) (spec, bool) {
	for _, s := range table {
		if s.name == name {
			return s, true
		}
		for _, a := range s.aliases {
			if a == name {
				return s, true
			}
		}
	}
	return spec{}, false
}

// suggestionThreshold is the largest edit distance still offered as a
// suggestion.
const suggestionThreshold = 3

// suggest returns the closest command name by Levenshtein distance, or
// empty when nothing is close enough.
func suggest(name string) string {
	dmp := diffmatchpatch.New()
	best := ""
	bestDist := suggestionThreshold + 1
	for _, s := range table {
		diffs := dmp.DiffMain(name, s.name, false)
		if d := dmp.DiffLevenshtein(diffs); d < bestDist {
			bestDist = d
			best = s.name
		}
	}
	return best
}

// HelpText renders the command list, or the help line of one command.
func HelpText(topic string) string {
	if topic != "" {
		s, ok := lookup(topic)
		if !ok {
			return fmt.Sprintf("No help for %q", topic)
		}
		return fmt.Sprintf(":%s — %s", s.usage, s.help)
	}
	var b strings.Builder
	b.WriteString("Client commands:\n")
	for _, s := range table {
		line := ":" + s.usage
		if len(s.aliases) > 0 {
			line += " (" + strings.Join(s.aliases, ", ") + ")"
		}
		fmt.Fprintf(&b, "  %-28s %s\n", line, s.help)
	}
	return b.String()
}

// Names returns every command name, used by command-bar completion.
func Names() []string {
	out := make([]string, 0, len(table))
	for _, s := range table {
		out = append(out, s.name)
	}
	return out
}
