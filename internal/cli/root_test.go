package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--version"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		assert.Contains(t, output.String(), "baxter version")
		assert.Contains(t, output.String(), GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "coding agent")
		assert.Contains(t, helpText, "sessions")
		assert.Contains(t, helpText, "configure")
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		configFlag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
		require.NotNil(t, logLevelFlag)
		assert.Equal(t, "info", logLevelFlag.DefValue)

		for _, name := range []string{"workspace", "provider", "model", "session"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), name)
		}
	})
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}

func TestPickProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	t.Run("no keys anywhere", func(t *testing.T) {
		_, err := pickProvider("")
		assert.Error(t, err)
	})

	t.Run("preferred provider missing key", func(t *testing.T) {
		_, err := pickProvider("anthropic")
		assert.Error(t, err)
	})

	t.Run("falls back in preference order", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "gsk_test")
		name, err := pickProvider("")
		require.NoError(t, err)
		assert.Equal(t, "groq", name)

		t.Setenv("OPENAI_API_KEY", "sk-test")
		name, err = pickProvider("")
		require.NoError(t, err)
		assert.Equal(t, "openai", name)
	})

	t.Run("preferred provider with key wins", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "gsk_test")
		name, err := pickProvider("groq")
		require.NoError(t, err)
		assert.Equal(t, "groq", name)
	})
}
