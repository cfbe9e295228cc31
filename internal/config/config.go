package config

import (
	"encoding/json"
)

// Config represents the main Baxter configuration
type Config struct {
	// Provider is the preferred AI provider (anthropic, openai, groq).
	// Empty means pick the first provider with an API key available.
	Provider string `json:"provider" mapstructure:"provider"`

	// Model overrides the provider's default model
	Model string `json:"model" mapstructure:"model"`

	// WorkspaceRoot is the directory all tools are confined to.
	// Empty means the current working directory.
	WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"`

	// DataDir holds state (logs, sessions, .env). Defaults to ~/.baxter
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Sessions
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// SessionsConfig holds transcript persistence settings
type SessionsConfig struct {
	Dir           string `json:"dir" mapstructure:"dir"`
	RetentionDays int    `json:"retention_days" mapstructure:"retention_days"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Provider:      "",
		Model:         "",
		WorkspaceRoot: "",
		DataDir:       "",
		Logging: LoggingConfig{
			Level:     "info",
			Console:   false,
			MaxSize:   20,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Sessions: SessionsConfig{
			RetentionDays: 30,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
