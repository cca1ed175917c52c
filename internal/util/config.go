package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`
	DebugAST  bool   `toml:"-"`

	// settable from the config file
	Prompt      string `toml:"prompt"`
	HistoryFile string `toml:"history_file"`
	HistorySize int    `toml:"history_size"`
}

// DefaultConfigPath is where LoadConfig looks when no -config flag is given.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vanilla", "config.toml")
}

// LoadConfig merges the TOML file at path into config. A missing file is not
// an error; only an unreadable or malformed one is.
func LoadConfig(path string, config *Configuration) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}
