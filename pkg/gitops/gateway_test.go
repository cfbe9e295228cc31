package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/baxter/pkg/procrun"
	"github.com/harun/baxter/pkg/sandbox"
)

func newTestGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	return New(procrun.New(sb, nil)), sb.Root()
}

func initRepo(t *testing.T, root string) {
	t.Helper()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "dev@example.com"},
		{"config", "user.name", "Dev"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
}

func TestRun_DisallowedSubcommand(t *testing.T) {
	gw, _ := newTestGateway(t)

	_, err := gw.Run(context.Background(), Command{Subcommand: "clean"})
	assert.ErrorIs(t, err, ErrDisallowed)

	_, err = gw.Run(context.Background(), Command{Subcommand: ""})
	assert.ErrorContains(t, err, "non-empty string")
}

func TestRun_DisallowedTokens(t *testing.T) {
	gw, _ := newTestGateway(t)

	tests := [][]string{
		{"--git-dir", "/elsewhere"},
		{"-C", "/elsewhere"},
		{"--exec-path"},
		{"--upload-pack=/bin/sh"},
		{"--receive-pack=/bin/sh"},
	}
	for _, args := range tests {
		_, err := gw.Run(context.Background(), Command{Subcommand: "status", Args: args})
		assert.ErrorIs(t, err, ErrDisallowed, "args %v", args)
	}
}

func TestRun_Status(t *testing.T) {
	gw, root := newTestGateway(t)
	initRepo(t, root)

	res, err := gw.Run(context.Background(), Command{Subcommand: "status", Args: []string{"--porcelain"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Empty(t, res.Stdout)
}

func TestRun_PushBlockedOnDirtyTree(t *testing.T) {
	gw, root := newTestGateway(t)
	initRepo(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "uncommitted.txt"), []byte("x"), 0644))

	// The push itself is never reached: there is no remote, so a real push
	// would fail with a different error than the preflight one.
	_, err := gw.Run(context.Background(), Command{Subcommand: "push"})
	require.ErrorIs(t, err, ErrPrecheckFailed)
	assert.ErrorContains(t, err, "uncommitted changes")
}

func TestRun_PushPreflightOnCleanTreeReachesGit(t *testing.T) {
	gw, root := newTestGateway(t)
	initRepo(t, root)

	// Clean tree passes the preflight; git itself then fails because no
	// remote is configured, which surfaces as a non-zero exit rather than
	// a precheck error.
	res, err := gw.Run(context.Background(), Command{Subcommand: "push"})
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestValidate_TimeoutClamp(t *testing.T) {
	for _, raw := range []int{0, -5, 301, 100000} {
		got, err := validate(Command{Subcommand: "status", TimeoutSec: raw})
		require.NoError(t, err)
		assert.Equal(t, 60, got.TimeoutSec, "raw %d", raw)
	}
	got, err := validate(Command{Subcommand: "status", TimeoutSec: 120})
	require.NoError(t, err)
	assert.Equal(t, 120, got.TimeoutSec)
}

func TestValidate_NormalizesSubcommandCase(t *testing.T) {
	got, err := validate(Command{Subcommand: " Status "})
	require.NoError(t, err)
	assert.Equal(t, "status", got.Subcommand)

	_, err = validate(Command{Subcommand: "CLEAN"})
	assert.ErrorIs(t, err, ErrDisallowed)
}

func TestIsAllowedSubcommand(t *testing.T) {
	assert.True(t, IsAllowedSubcommand("push"))
	assert.True(t, IsAllowedSubcommand("  Status "))
	assert.False(t, IsAllowedSubcommand("clean"))
	assert.False(t, IsAllowedSubcommand("filter-branch"))
}
