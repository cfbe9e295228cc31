package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Provider)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Console)
	assert.True(t, cfg.Logging.Redaction)
	assert.Equal(t, 20, cfg.Logging.MaxSize)
	assert.Equal(t, 30, cfg.Sessions.RetentionDays)
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"

	s := cfg.String()
	assert.Contains(t, s, `"provider": "anthropic"`)
	assert.Contains(t, s, `"logging"`)
}
