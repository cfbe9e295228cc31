package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Provider produces one assistant reply for a request.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderSpec describes a known provider.
type ProviderSpec struct {
	EnvKey       string
	DefaultModel string
	Models       []string
}

var providerSpecs = map[string]ProviderSpec{
	"anthropic": {
		EnvKey:       "ANTHROPIC_API_KEY",
		DefaultModel: "claude-3-5-haiku-latest",
		Models: []string{
			"claude-3-5-haiku-latest",
			"claude-3-5-sonnet-latest",
			"claude-3-7-sonnet-latest",
		},
	},
	"openai": {
		EnvKey:       "OPENAI_API_KEY",
		DefaultModel: "gpt-4o-mini",
		Models: []string{
			"gpt-4o-mini",
			"gpt-5-mini",
		},
	},
	"groq": {
		EnvKey:       "GROQ_API_KEY",
		DefaultModel: "llama-3.1-8b-instant",
		Models: []string{
			"llama-3.1-8b-instant",
			"openai/gpt-oss-120b",
			"groq/compound",
		},
	},
}

const groqBaseURL = "https://api.groq.com/openai/v1/"

// KnownProviders returns the supported provider names in preference order.
func KnownProviders() []string {
	return []string{"anthropic", "openai", "groq"}
}

// Spec returns the spec for a known provider.
func Spec(name string) (ProviderSpec, bool) {
	s, ok := providerSpecs[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// HasKey reports whether the provider's API key is present in the
// environment.
func HasKey(name string) bool {
	s, ok := Spec(name)
	return ok && strings.TrimSpace(os.Getenv(s.EnvKey)) != ""
}

// DefaultModel returns the provider's default model.
func DefaultModel(name string) string {
	if s, ok := Spec(name); ok {
		return s.DefaultModel
	}
	return ""
}

// NewProvider builds a provider by name, reading its API key from the
// environment.
func NewProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	spec, ok := providerSpecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	apiKey := strings.TrimSpace(os.Getenv(spec.EnvKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%s is missing; set it in the environment or ~/.baxter/.env", spec.EnvKey)
	}

	switch name {
	case "anthropic":
		return newAnthropicProvider(apiKey), nil
	case "openai":
		return newOpenAIProvider(apiKey, ""), nil
	case "groq":
		return newGroqProvider(apiKey), nil
	}
	return nil, fmt.Errorf("unknown provider: %s", name)
}
