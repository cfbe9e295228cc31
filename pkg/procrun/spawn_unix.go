//go:build !windows

package procrun

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func isWindows() bool { return false }

// Both foreground and detached children get their own process group so that
// the whole tree can be signalled at once.
func setForegroundSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func setDetachedSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func isExecNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, unix.ENOENT)
}

func pidIsRunning(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but is not signalable by this user.
	return errors.Is(err, unix.EPERM)
}

func signalTerm(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func forceKill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// terminateProcessTree stops the whole process group: SIGTERM first, then
// SIGKILL after a short grace period.
func terminateProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if cmd.ProcessState != nil {
		return
	}
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
		return
	}
	time.Sleep(terminateGracePeriod)
	if pidIsRunning(pid) {
		if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
			_ = cmd.Process.Kill()
		}
	}
}
