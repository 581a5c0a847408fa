package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SaveTOML writes data as a TOML file, creating parent directories with
// owner-only permissions. rv uses it to seed config.toml in the root
// directory on first init.
func SaveTOML(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// LoadTOML decodes a TOML file into data.
func LoadTOML(path string, data interface{}) error {
	if _, err := toml.DecodeFile(path, data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
