// Package cmd wires the CLI surface: flag parsing, config loading, and
// program startup.
package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/zjrosen/stanza/internal/app"
	"github.com/zjrosen/stanza/internal/backend"
	_ "github.com/zjrosen/stanza/internal/backend/local"
	"github.com/zjrosen/stanza/internal/config"
	"github.com/zjrosen/stanza/internal/log"
	"github.com/zjrosen/stanza/internal/tracing"
	"github.com/zjrosen/stanza/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// the Bubble Tea program starts, so the terminal's OSC 11 response
	// cannot race with the input loop and land in the command bar.
	_ = lipgloss.HasDarkBackground()
}

// ExitMisuse is the exit code for bad flags and config errors.
const ExitMisuse = 2

// misuseError marks errors that should exit with code 2.
type misuseError struct{ err error }

func (e *misuseError) Error() string { return e.err.Error() }
func (e *misuseError) Unwrap() error { return e.err }

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:     "stanza",
	Short:   "A modal, vi-inspired terminal chat client",
	Long:    `Stanza is a terminal chat client with vi-style modal editing, tiled panes, and a ':' command bar.`,
	Version: version,
	RunE:    runApp,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultAccountFile,
		"path to the account config file")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also: STANZA_DEBUG=1)")
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &misuseError{err: err}
	})
}

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stanza:", err)
		var misuse *misuseError
		if errors.As(err, &misuse) {
			return ExitMisuse
		}
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Defaults()

	v := viperlib.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading account config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing account config: %w", err)
	}
	if ui, err := config.LoadPreferences(path); err == nil {
		cfg.UI = ui
	}
	if err := config.Validate(cfg, backend.Protocols()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	debug := os.Getenv("STANZA_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("STANZA_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "stanza")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "Stanza starting", "version", version, "config", cfgFile)
	}

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return &misuseError{err: err}
	}

	traceProvider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return &misuseError{err: fmt.Errorf("configuring tracing: %w", err)}
	}
	defer func() { _ = traceProvider.Shutdown(cmd.Context()) }()

	be, err := backend.New(cfg.Protocol, backend.Options{
		Auth:   cfg.Auth,
		Config: cfg.Backend,
	})
	if err != nil {
		return &misuseError{err: err}
	}

	var cfgWatcher *watcher.Watcher
	if w, werr := watcher.New(watcher.DefaultConfig(cfgFile)); werr == nil {
		if serr := w.Start(); serr == nil {
			cfgWatcher = w
			defer func() { _ = w.Stop() }()
		}
	}

	model := app.New(cfg, be, cfgWatcher)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
