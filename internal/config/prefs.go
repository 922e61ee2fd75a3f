package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Prefs represents the TOML tool preferences file. These are machine-local
// settings, not assignment configuration; the assignment tiers keep their
// own flat-file format.
type Prefs struct {
	Tool ToolPrefs `toml:"tool"`
}

// ToolPrefs maps tool-level settings.
type ToolPrefs struct {
	Dir          *string `toml:"dir"`
	RBinary      *string `toml:"r-binary"`
	PythonBinary *string `toml:"python-binary"`
	SASLocation  *string `toml:"sas-location"`
	DBPath       *string `toml:"db-path"`
}

// LoadPrefs reads a TOML preferences file from the given path. A missing
// file is not an error.
func LoadPrefs(path string) (Prefs, error) {
	if path == "" {
		return Prefs{}, fmt.Errorf("preferences path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("failed to stat preferences: %w", err)
	}
	var prefs Prefs
	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		return Prefs{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return prefs, nil
}
