package store

import (
	"os"
	"path/filepath"

	"github.com/hamidzr/surferh/constant"
)

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// DataDir is where file and sqlite slots live unless configured otherwise.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, constant.ProjectName)
	}
	return filepath.Join(homeDir(), ".local", "share", constant.ProjectName)
}
