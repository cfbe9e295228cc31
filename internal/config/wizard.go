package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

var providerEnvKeys = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"groq":      "GROQ_API_KEY",
}

// Wizard provides the interactive first-run API key setup
type Wizard struct {
	reader  *bufio.Reader
	out     io.Writer
	envPath string
}

// NewWizard creates a new setup wizard writing keys to the default env file
func NewWizard() *Wizard {
	return &Wizard{
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		envPath: DefaultEnvPath(),
	}
}

// HasAnyProviderKey reports whether any provider API key is present in the
// environment.
func HasAnyProviderKey() bool {
	for _, envKey := range providerEnvKeys {
		if os.Getenv(envKey) != "" {
			return true
		}
	}
	return false
}

// Run prompts for one provider API key and persists it. Returns the chosen
// provider name, or an empty string when the user skips setup.
func (w *Wizard) Run() (string, error) {
	fmt.Fprintln(w.out, "No API key found. Baxter needs one of:")
	fmt.Fprintln(w.out, "  1) anthropic (ANTHROPIC_API_KEY)")
	fmt.Fprintln(w.out, "  2) openai    (OPENAI_API_KEY)")
	fmt.Fprintln(w.out, "  3) groq      (GROQ_API_KEY)")
	fmt.Fprintln(w.out)

	fmt.Fprint(w.out, "Set up an API key now? [y/N]: ")
	answer, err := w.readLine()
	if err != nil {
		return "", err
	}
	if strings.ToLower(answer) != "y" {
		return "", nil
	}

	var provider string
	for {
		fmt.Fprint(w.out, "Choose provider [1-3]: ")
		choice, err := w.readLine()
		if err != nil {
			return "", err
		}
		switch choice {
		case "1":
			provider = "anthropic"
		case "2":
			provider = "openai"
		case "3":
			provider = "groq"
		default:
			fmt.Fprintln(w.out, "Enter 1, 2, or 3.")
			continue
		}
		break
	}

	validator := NewValidator()
	envKey := providerEnvKeys[provider]

	var key string
	for {
		fmt.Fprintf(w.out, "%s: ", envKey)
		key, err = w.readLine()
		if err != nil {
			return "", err
		}
		if err := validator.ValidateAPIKey(key, provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		break
	}

	if err := SetEnvFileKey(w.envPath, envKey, key); err != nil {
		return "", err
	}
	if err := os.Setenv(envKey, key); err != nil {
		return "", err
	}

	fmt.Fprintf(w.out, "Saved %s to %s\n", envKey, w.envPath)
	return provider, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
