// Package config loads, saves and defaults paperchat configuration.
// Configuration lives in ~/.paperchat/config.yaml; environment variables
// override individual fields after the file is read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"paperchat/internal/modes"
)

// Config holds all paperchat configuration.
type Config struct {
	// Backend API endpoint
	API APIConfig `yaml:"api"`

	// Interactive UI behavior
	UI UIConfig `yaml:"ui"`

	// Upload handling
	Upload UploadConfig `yaml:"upload"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the document/chat backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	Theme                string `yaml:"theme"` // auto, light, dark
	DefaultMode          string `yaml:"default_mode"`
	TypewriterIntervalMS int    `yaml:"typewriter_interval_ms"`
	MouseEnabled         bool   `yaml:"mouse_enabled"`
}

// UploadConfig configures document uploads.
type UploadConfig struct {
	// Largest file accepted before the client refuses locally, in MiB.
	// Zero disables the check.
	MaxFileMB int `yaml:"max_file_mb"`

	// Directory watched by `paperchat docs watch` when no argument is given.
	InboxDir string `yaml:"inbox_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: "120s",
		},

		UI: UIConfig{
			Theme:                "auto",
			DefaultMode:          modes.Default.Key(),
			TypewriterIntervalMS: 35,
			MouseEnabled:         true,
		},

		Upload: UploadConfig{
			MaxFileMB: 50,
			InboxDir:  "",
		},

		Logging: LoggingConfig{
			Level:      "info",
			File:       "paperchat.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// DefaultPath returns the default path to ~/.paperchat/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".paperchat", "config.yaml")
	}
	return filepath.Join(home, ".paperchat", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("PAPERCHAT_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if timeout := os.Getenv("PAPERCHAT_TIMEOUT"); timeout != "" {
		c.API.Timeout = timeout
	}
	if mode := os.Getenv("PAPERCHAT_MODE"); mode != "" {
		c.UI.DefaultMode = mode
	}
	if level := os.Getenv("PAPERCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("PAPERCHAT_INBOX"); dir != "" {
		c.Upload.InboxDir = dir
	}
}

// GetAPITimeout returns the API timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetTypewriterInterval returns the banner reveal cadence as a duration.
func (c *Config) GetTypewriterInterval() time.Duration {
	if c.UI.TypewriterIntervalMS <= 0 {
		return 35 * time.Millisecond
	}
	return time.Duration(c.UI.TypewriterIntervalMS) * time.Millisecond
}

// DefaultKnowledgeMode returns the configured startup mode, falling back to
// the package default when the configured key is unknown.
func (c *Config) DefaultKnowledgeMode() modes.KnowledgeMode {
	m, err := modes.Parse(c.UI.DefaultMode)
	if err != nil {
		return modes.Default
	}
	return m
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url not configured")
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	if _, err := modes.Parse(c.UI.DefaultMode); err != nil {
		return fmt.Errorf("invalid ui.default_mode: %w", err)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	return nil
}
