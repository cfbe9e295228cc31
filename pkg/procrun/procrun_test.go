package procrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/baxter/pkg/sandbox"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	return New(sb, nil)
}

func TestNormalizeTimeout(t *testing.T) {
	tests := []struct {
		name     string
		raw      int
		soft     int
		max      int
		adaptive bool
	}{
		{"missing", 0, 60, 1800, true},
		{"default sixty is adaptive", 60, 60, 1800, true},
		{"explicit short is strict", 5, 5, 5, false},
		{"explicit long is strict", 900, 900, 900, false},
		{"out of range high", 5000, 60, 1800, true},
		{"negative", -3, 60, 1800, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			soft, max, adaptive := normalizeTimeout(tt.raw)
			assert.Equal(t, tt.soft, soft)
			assert.Equal(t, tt.max, max)
			assert.Equal(t, tt.adaptive, adaptive)
		})
	}
}

func TestRun_DisallowedBinary(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run(context.Background(), Request{Cmd: []string{"rm", "-rf", "/"}})
	assert.ErrorIs(t, err, ErrDisallowed)

	_, err = eng.Run(context.Background(), Request{Cmd: []string{"bash", "-c", "true"}})
	assert.ErrorIs(t, err, ErrDisallowed)
}

func TestRun_EmptyCommand(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestRun_BadCwd(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run(context.Background(), Request{Cmd: []string{"git", "status"}, Cwd: "../outside"})
	assert.ErrorIs(t, err, sandbox.ErrInvalidPath)

	_, err = eng.Run(context.Background(), Request{Cmd: []string{"git", "status"}, Cwd: "missing"})
	assert.ErrorContains(t, err, "not a directory")
}

func TestRun_ForegroundSuccess(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Run(context.Background(), Request{Cmd: []string{"python3", "-c", "print('hi')"}, TimeoutSec: 30})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Equal(t, "fixed", res.TimeoutPolicy)
	assert.Equal(t, 30, res.TimeoutSec)
}

func TestRun_ForegroundNonZeroExit(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Run(context.Background(), Request{Cmd: []string{"python3", "-c", "import sys; sys.exit(3)"}, TimeoutSec: 30})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_ForegroundStrictTimeout(t *testing.T) {
	eng := newTestEngine(t)

	start := time.Now()
	res, err := eng.Run(context.Background(), Request{Cmd: []string{"python3", "-c", "import time; time.sleep(30)"}, TimeoutSec: 1})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.False(t, res.TimeoutExtended)
	assert.Equal(t, "fixed", res.TimeoutPolicy)
	assert.Contains(t, res.Message, "timed out after 1s")
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestRun_DetachedTracksPid(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Run(context.Background(), Request{
		Cmd:    []string{"python3", "-c", "import time; time.sleep(60)"},
		Detach: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Detached)
	assert.Positive(t, res.Pid)
	assert.True(t, eng.Tracker().IsTracked(res.Pid))

	stop, err := eng.StopPid(res.Pid)
	require.NoError(t, err)
	assert.True(t, stop.Stopped)
	assert.False(t, eng.Tracker().IsTracked(res.Pid))
}

func TestStopPid_UntrackedRefused(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.StopPid(999999)
	assert.ErrorIs(t, err, ErrNotTracked)

	_, err = eng.StopPid(-1)
	assert.ErrorContains(t, err, "positive integer")
}

func TestStopActiveForeground_NoneRunning(t *testing.T) {
	eng := newTestEngine(t)
	assert.False(t, eng.StopActiveForeground())
}

func TestStopAllTracked(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Run(context.Background(), Request{
		Cmd:    []string{"python3", "-c", "import time; time.sleep(60)"},
		Detach: true,
	})
	require.NoError(t, err)

	n := eng.StopAllTracked()
	assert.Equal(t, 1, n)
	assert.False(t, eng.Tracker().IsTracked(res.Pid))
}

func TestCommandCandidates_NonWindowsPassthrough(t *testing.T) {
	if isWindows() {
		t.Skip("non-Windows candidate behavior")
	}
	got := commandCandidates([]string{"npm", "install"})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"npm", "install"}, got[0])
}
