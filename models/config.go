package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config Connection settings for a HySDS cluster, normally read from
// ~/.config/mozart/config.yml
type Config struct {
	// Host Base URL of the cluster, e.g. https://mozart.example.com
	Host string `yaml:"host"`

	// Username Cluster account, used for the per-user job listing
	Username string `yaml:"username"`

	// Auth Whether requests must carry credentials
	Auth bool `yaml:"auth"`
}

// DefaultConfigPath Location of the config file when none is supplied
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mozart", "config.yml"), nil
}

// LoadConfig Reads and validates a config file; an empty path falls
// back to DefaultConfigPath
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate Checks the settings a client cannot run without
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("host must be set in the config")
	}
	return nil
}

// Merge Overlays the non-empty fields of override onto cfg, keeping
// the current value where override leaves a field empty
func (cfg *Config) Merge(override *Config) error {
	if override == nil {
		return nil
	}
	return mergo.Merge(cfg, override, mergo.WithOverride)
}

// Save Writes the config to path, creating parent directories as needed
func (cfg *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
