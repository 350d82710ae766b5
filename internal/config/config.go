// Package config provides configuration types, defaults, and persistence
// for stanza. The account file is JSON: the protocol selects a backend
// adapter, the auth block is adapter-specific and validated against the
// adapter's schema at startup.
package config

import (
	"fmt"
	"slices"

	"github.com/zjrosen/stanza/internal/tracing"
)

// DefaultAccountFile is the account config looked up when -c is absent.
const DefaultAccountFile = "mm-account.json"

// Config holds all configuration options for stanza.
type Config struct {
	// Protocol names the backend adapter. Required.
	Protocol string `mapstructure:"protocol"`

	// Auth is the adapter-specific credential block. Required; its shape
	// is validated by the selected adapter's schema.
	Auth map[string]any `mapstructure:"auth"`

	// Backend holds optional adapter-specific settings.
	Backend map[string]any `mapstructure:"config"`

	// UI holds interface preferences.
	UI UIConfig `mapstructure:"ui"`

	// Tracing configures the optional trace pipeline.
	Tracing tracing.Config `mapstructure:"tracing"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	// MarkdownStyle picks the glamour style: "dark", "light", or ""
	// for terminal detection.
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"`

	// ShowStatusBar is saved and loaded with the preferences. The
	// application does not read it; the status line is always drawn.
	ShowStatusBar bool `mapstructure:"show_status_bar" yaml:"show_status_bar"`

	// ScrollbackLimit is saved and loaded with the preferences. Scrollback
	// loading does not read it; the local adapter loads a room's 200 most
	// recent messages.
	ScrollbackLimit int `mapstructure:"scrollback_limit" yaml:"scrollback_limit"`
}

// Defaults returns the configuration used before any file is read.
func Defaults() Config {
	return Config{
		UI: UIConfig{
			ShowStatusBar:   true,
			ScrollbackLimit: 200,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the account config against the known protocols. The
// adapter schema check happens later, when the backend is constructed.
func Validate(cfg Config, knownProtocols []string) error {
	if cfg.Protocol == "" {
		return fmt.Errorf("account config: %q field is required", "protocol")
	}
	if !slices.Contains(knownProtocols, cfg.Protocol) {
		return fmt.Errorf("account config: unknown protocol %q (known: %v)", cfg.Protocol, knownProtocols)
	}
	if cfg.Auth == nil {
		return fmt.Errorf("account config: %q block is required", "auth")
	}
	return nil
}
