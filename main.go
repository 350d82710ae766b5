// Package main is the entry point for the stanza chat client.
package main

import (
	"fmt"
	"os"

	"github.com/zjrosen/stanza/cmd"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersion(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	os.Exit(cmd.Execute())
}
