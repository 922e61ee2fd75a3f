// Package config provides the tiered assignment configuration system,
// tool preferences, and path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// GlobalConfigDir returns the directory holding the global configuration
// tier and roster files: $AUTOGRADER_GLOBAL_CONFIG when set, otherwise the
// user's home directory.
func GlobalConfigDir() string {
	if v := os.Getenv("AUTOGRADER_GLOBAL_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// DefaultPrefsPath returns the default TOML preferences path.
func DefaultPrefsPath() string {
	return filepath.Join(XDGConfigHome(), "autograde", "config.toml")
}

// DefaultDBPath returns the default path for the history database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "autograde", "autograde.db")
}
