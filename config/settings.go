package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadConfigFile decodes path over defaults. When the file does not exist it
// is created from the defaults and the defaults are returned.
func LoadConfigFile(path string, defaults *Config) (*Config, error) {
	cfg := *defaults

	if !FileExists(path) {
		if err := CreateDefaultConfig(path, defaults); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
		return &cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func CreateDefaultConfig(path string, cfg *Config) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(path) {
		return nil
	}

	content := GenerateConfigTemplate(cfg)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
