// Package config loads the optional sha3sum defaults file. Command-line
// flags always win over file values; the file only shifts defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds user defaults.
type Config struct {
	// Length is the default digest width in bits.
	Length int `toml:"length"`
	// Tag selects BSD-style tagged output by default.
	Tag bool `toml:"tag"`
	// Ignore and Hide are glob patterns applied while recursing.
	Ignore []string `toml:"ignore"`
	Hide   []string `toml:"hide"`
}

// Default returns the built-in defaults: the maximum digest width and no
// ignore patterns.
func Default() *Config {
	return &Config{Length: 512}
}

// DefaultPath returns the conventional location of the defaults file, or
// empty when no user config directory exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sha3sum", "config.toml")
}

// Load reads a TOML defaults file. A missing file (or empty path) yields
// the built-in defaults; a present but invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	switch cfg.Length {
	case 224, 256, 384, 512:
	default:
		return nil, fmt.Errorf("config: %s: invalid length %d (valid lengths are 224, 256, 384 and 512)",
			path, cfg.Length)
	}
	return cfg, nil
}
