// Package config loads YAML configuration for the railscookie command
// line demonstrator: which secret key base to derive session keys from,
// how many PBKDF2 iterations to use, and the default purpose string for
// signed-message operations.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultPBKDF2Iterations matches the source framework's own default and
// the value the Session Envelope hard-codes for cookie key derivation.
const defaultPBKDF2Iterations = 1000

// defaultConfigPath is used by LoadEnv when RAILSCOOKIE_CONFIG is unset.
const defaultConfigPath = "railscookie.yaml"

// envVar names the environment variable LoadEnv consults for a config
// file path override.
const envVar = "RAILSCOOKIE_CONFIG"

// Config holds the settings the CLI demonstrator needs to exercise the
// core packages against real secrets and purposes.
type Config struct {
	SecretKeyBase    string `yaml:"secret_key_base"`
	PBKDF2Iterations int    `yaml:"pbkdf2_iterations"`
	DefaultPurpose   string `yaml:"default_purpose"`
}

// Load reads and parses the YAML file at path, applying the default
// PBKDF2 iteration count when omitted, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.PBKDF2Iterations == 0 {
		cfg.PBKDF2Iterations = defaultPBKDF2Iterations
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEnv loads the configuration file named by RAILSCOOKIE_CONFIG,
// falling back to defaultConfigPath in the current directory.
func LoadEnv() (*Config, error) {
	path := os.Getenv(envVar)
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

// Validate fails closed if the configuration is missing fields the core
// packages require to operate.
func (c *Config) Validate() error {
	if c.SecretKeyBase == "" {
		return errors.New("secret_key_base is required")
	}
	if c.PBKDF2Iterations < 1 {
		return errors.New("pbkdf2_iterations must be >= 1")
	}
	return nil
}
