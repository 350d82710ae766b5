package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PreferencesFile is the UI preference sidecar written next to the
// account file. Preferences are YAML so hand edits stay pleasant; the
// account file itself is never rewritten by stanza.
const PreferencesFile = "stanza-ui.yaml"

// SavePreferences writes the UI preferences next to the account config.
func SavePreferences(accountPath string, ui UIConfig) error {
	data, err := yaml.Marshal(ui)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	path := filepath.Join(filepath.Dir(accountPath), PreferencesFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// LoadPreferences reads the UI preference sidecar, returning defaults
// when the file is missing.
func LoadPreferences(accountPath string) (UIConfig, error) {
	ui := Defaults().UI
	path := filepath.Join(filepath.Dir(accountPath), PreferencesFile)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path derives from the user's -c flag
	if os.IsNotExist(err) {
		return ui, nil
	}
	if err != nil {
		return ui, fmt.Errorf("reading preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &ui); err != nil {
		return ui, fmt.Errorf("parsing preferences: %w", err)
	}
	return ui, nil
}
