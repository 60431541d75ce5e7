// file: internal/config/persistence.go
// version: 2.0.0
// guid: 0ff3eb47-fd5f-4828-af6d-c5fb3f9e6848

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Marshal renders cfg as YAML. Durations are written in time.Duration
// string form and the Redis password is never written.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// SaveToFile writes cfg as YAML to path.
func SaveToFile(cfg Config, path string) error {
	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultFilePath returns $HOME/.cliqbook.yaml, or "" when there is no home directory.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cliqbook.yaml")
}
