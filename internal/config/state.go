package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/reploy-cli/reploy/internal/errors"
)

// State is the small amount of data reploy remembers between runs.
type State struct {
	LastWorkspace string `json:"lastWorkspace,omitempty"`
}

// StateDir returns the directory holding state.json and logs.
// REPLOY_HOME overrides the default of ~/.reploy.
func StateDir() string {
	if dir := os.Getenv("REPLOY_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reploy"
	}
	return filepath.Join(home, ".reploy")
}

// StateFile returns the path to the state file inside dir.
func StateFile(dir string) string {
	return filepath.Join(dir, "state.json")
}

// LoadState reads the state file in dir. A missing or unreadable file yields
// an empty State.
func LoadState(dir string) State {
	var s State
	data, err := os.ReadFile(StateFile(dir))
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}
	}
	return s
}

// SaveState writes s to the state file in dir, creating dir if needed.
func SaveState(dir string, s State) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating state directory")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding state")
	}
	if err := os.WriteFile(StateFile(dir), append(data, '\n'), 0644); err != nil {
		return errors.Wrap(err, "writing state file")
	}
	return nil
}
