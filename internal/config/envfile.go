package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEnvPath returns the path of the dotenv file holding API keys.
func DefaultEnvPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".baxter", ".env")
}

// LoadEnvFile reads KEY=VALUE lines from a dotenv file into the process
// environment. Variables already set in the environment win. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// SetEnvFileKey writes or replaces one KEY=VALUE entry in the dotenv file,
// creating the file with restrictive permissions on first use.
func SetEnvFileKey(path, key, value string) error {
	if path == "" {
		path = DefaultEnvPath()
	}
	if key == "" {
		return fmt.Errorf("env key cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create env directory: %w", err)
	}

	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	entry := key + "=" + value
	replaced := false
	var out []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		existing, _, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok && strings.TrimSpace(existing) == key {
			out = append(out, entry)
			replaced = true
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, entry)
	}

	content := strings.Join(out, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}
