package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/baxter/pkg/session"
)

// withTestConfig points the global config flag at a temp config whose
// sessions live in a temp directory.
func withTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "baxter.json")
	content := `{"data_dir": "` + dir + `", "workspace_root": "` + dir + `"}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	prev := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = prev })
	return filepath.Join(dir, "sessions")
}

func TestSessionsCommands(t *testing.T) {
	sessionsDir := withTestConfig(t)

	store, err := session.NewStore(sessionsDir)
	require.NoError(t, err)
	require.NoError(t, store.Append("demo", session.Entry{Role: "user", Content: "hello"}))

	t.Run("list", func(t *testing.T) {
		out := &bytes.Buffer{}
		sessionsListCmd.SetOut(out)
		require.NoError(t, runSessionsList(sessionsListCmd, nil))
		assert.Contains(t, out.String(), "demo")
	})

	t.Run("show", func(t *testing.T) {
		out := &bytes.Buffer{}
		sessionsShowCmd.SetOut(out)
		require.NoError(t, runSessionsShow(sessionsShowCmd, []string{"demo"}))
		assert.Contains(t, out.String(), "user: hello")
	})

	t.Run("delete", func(t *testing.T) {
		out := &bytes.Buffer{}
		sessionsDeleteCmd.SetOut(out)
		require.NoError(t, runSessionsDelete(sessionsDeleteCmd, []string{"demo"}))
		assert.Contains(t, out.String(), "Deleted session demo")

		keys, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("show missing session", func(t *testing.T) {
		out := &bytes.Buffer{}
		sessionsShowCmd.SetOut(out)
		require.NoError(t, runSessionsShow(sessionsShowCmd, []string{"nope"}))
		assert.Contains(t, out.String(), "empty or does not exist")
	})

	t.Run("prune with retention", func(t *testing.T) {
		out := &bytes.Buffer{}
		sessionsPruneCmd.SetOut(out)
		require.NoError(t, runSessionsPrune(sessionsPruneCmd, nil))
		assert.Contains(t, out.String(), "older than 30 days")
	})
}

func TestSessionsRepairCommand(t *testing.T) {
	sessionsDir := withTestConfig(t)

	store, err := session.NewStore(sessionsDir)
	require.NoError(t, err)
	require.NoError(t, store.Append("mend", session.Entry{Role: "user", Content: "hi"}))

	// Simulate a crash mid-append leaving a truncated line behind.
	path := filepath.Join(sessionsDir, "mend.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"role":"assistant","content":"tru`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out := &bytes.Buffer{}
	sessionsRepairCmd.SetOut(out)
	require.NoError(t, runSessionsRepair(sessionsRepairCmd, []string{"mend"}))
	assert.Contains(t, out.String(), "Repaired session mend (1 readable entries kept)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tru")
	entries, err := store.Load("mend")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].Content)
}
