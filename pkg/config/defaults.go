package config

import (
	"os"
	"path/filepath"
)

// defaultDataDir returns the default data directory.
//
// Returns: ~/.config/robaccounts/.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir not available
		return "./robaccounts-data"
	}

	return filepath.Join(homeDir, ".config", "robaccounts")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/robaccounts/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "robaccounts", "config.yaml")
}
