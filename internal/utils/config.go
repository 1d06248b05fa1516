package utils

import (
	"os"
	"path/filepath"
)

// GetDataDir returns ~/.taskboard, or ./.taskboard if the home directory is unknown.
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskboard"
	}
	return filepath.Join(home, ".taskboard")
}
