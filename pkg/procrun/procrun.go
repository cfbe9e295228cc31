package procrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/baxter/pkg/sandbox"
)

// Keep this intentionally conservative. Expand only when needed.
var allowedBins = map[string]struct{}{
	"python":  {},
	"python3": {},
	"pip":     {},
	"pip3":    {},
	"git":     {},
	"node":    {},
	"npm":     {},
	"npx":     {},
	// Windows command shims for better PATH compatibility.
	"python.exe": {},
	"pip.exe":    {},
	"git.exe":    {},
	"node.exe":   {},
	"npm.cmd":    {},
	"npx.cmd":    {},
}

// Prefer Windows-native shim names when the bare name is unavailable.
var windowsBinFallbacks = map[string]string{
	"python": "python.exe",
	"pip":    "pip.exe",
	"git":    "git.exe",
	"node":   "node.exe",
	"npm":    "npm.cmd",
	"npx":    "npx.cmd",
}

const (
	defaultTimeoutSec = 60
	maxTimeoutSec     = 1800

	defaultReadyPort     = 3000
	readyPollInterval    = 200 * time.Millisecond
	readyDialTimeout     = 300 * time.Millisecond
	stopGracePeriod      = 3 * time.Second
	stopPollInterval     = 100 * time.Millisecond
	terminateGracePeriod = 200 * time.Millisecond
	streamDrainTimeout   = 5 * time.Second
)

// Mirror receives live output lines from a foreground command when streaming
// is requested. The label is "stdout" or "stderr".
type Mirror func(label, line string)

// Engine spawns and supervises workspace commands.
type Engine struct {
	sb      *sandbox.Sandbox
	tracker *Tracker
	mirror  Mirror
}

// New builds an Engine over the given sandbox. The mirror may be nil.
func New(sb *sandbox.Sandbox, mirror Mirror) *Engine {
	return &Engine{sb: sb, tracker: NewTracker(), mirror: mirror}
}

// Tracker exposes the session process tracker.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Request describes one command execution.
type Request struct {
	Cmd             []string
	Cwd             string
	TimeoutSec      int
	StrictTimeout   bool
	Detach          bool
	StreamOutput    bool
	WaitForReady    bool
	ReadyPort       int
	ReadyTimeoutSec int
}

// RunResult is the outcome of a foreground or detached run.
type RunResult struct {
	Cmd             []string
	Cwd             string
	Success         bool
	ExitCode        int
	Stdout          string
	Stderr          string
	TimedOut        bool
	TimeoutExtended bool
	TimeoutSec      int
	TimeoutPolicy   string
	Detached        bool
	Pid             int
	Ready           bool
	ReadyPort       int
	ReadyTimeoutSec int
	Message         string
}

// StopResult is the outcome of stopping a tracked detached process.
type StopResult struct {
	Pid     int
	Stopped bool
	Message string
}

// AllowedBins returns the sorted command allowlist for error messages and
// prompt rendering.
func AllowedBins() []string {
	names := make([]string, 0, len(allowedBins))
	for name := range allowedBins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalizeTimeout maps a raw timeout to (soft, max, adaptive). Explicit
// values other than 60 are strict; 60 is treated as the common default and
// auto-extends to 1800, as do missing or out-of-range values.
func normalizeTimeout(raw int) (soft, max int, adaptive bool) {
	if raw >= 1 && raw <= maxTimeoutSec {
		if raw == defaultTimeoutSec {
			return defaultTimeoutSec, maxTimeoutSec, true
		}
		return raw, raw, false
	}
	return defaultTimeoutSec, maxTimeoutSec, true
}

// commandCandidates returns the spawn attempts for cmd, including the
// Windows shim fallback when applicable.
func commandCandidates(cmd []string) [][]string {
	candidates := [][]string{cmd}
	if !isWindows() {
		return candidates
	}
	bin := strings.TrimSpace(cmd[0])
	if fallback, ok := windowsBinFallbacks[strings.ToLower(bin)]; ok && fallback != bin {
		alt := append([]string{fallback}, cmd[1:]...)
		candidates = append(candidates, alt)
	}
	return candidates
}

// Run executes req. Detached requests return as soon as the process has
// started (optionally after polling a TCP port for readiness); foreground
// requests block until exit or timeout.
func (e *Engine) Run(ctx context.Context, req Request) (RunResult, error) {
	if len(req.Cmd) == 0 {
		return RunResult{}, ErrInvalidCommand
	}
	for _, part := range req.Cmd {
		if part == "" {
			return RunResult{}, ErrInvalidCommand
		}
	}

	bin := strings.TrimSpace(req.Cmd[0])
	if _, ok := allowedBins[bin]; !ok {
		return RunResult{}, fmt.Errorf("%w: %q (allowed: %s)", ErrDisallowed, bin, strings.Join(AllowedBins(), ", "))
	}

	cwd := strings.TrimSpace(req.Cwd)
	if cwd == "" {
		cwd = "."
	}
	fullCwd, err := e.sb.Resolve(cwd)
	if err != nil {
		return RunResult{}, err
	}
	if info, statErr := os.Stat(fullCwd); statErr != nil || !info.IsDir() {
		return RunResult{}, fmt.Errorf("cwd is not a directory: %s", cwd)
	}

	soft, max, adaptive := normalizeTimeout(req.TimeoutSec)
	if req.StrictTimeout && req.TimeoutSec >= 1 && req.TimeoutSec <= maxTimeoutSec {
		soft, max, adaptive = req.TimeoutSec, req.TimeoutSec, false
	}

	if req.Detach {
		return e.runDetached(req, fullCwd, cwd, max)
	}
	return e.runForeground(ctx, req, fullCwd, cwd, soft, max, adaptive)
}

func (e *Engine) runDetached(req Request, fullCwd, relCwd string, maxTimeout int) (RunResult, error) {
	readyPort := req.ReadyPort
	if readyPort < 1 || readyPort > 65535 {
		readyPort = defaultReadyPort
	}
	readyTimeout := req.ReadyTimeoutSec
	if readyTimeout < 1 {
		readyTimeout = maxTimeout
		if readyTimeout > 180 {
			readyTimeout = 180
		}
	}
	if readyTimeout > maxTimeout {
		readyTimeout = maxTimeout
	}

	var tried []string
	for _, candidate := range commandCandidates(req.Cmd) {
		cmd := exec.Command(candidate[0], candidate[1:]...)
		cmd.Dir = fullCwd
		cmd.Env = os.Environ()
		cmd.Stdin = nil
		cmd.Stdout = nil
		cmd.Stderr = nil
		setDetachedSysProcAttr(cmd)

		if err := cmd.Start(); err != nil {
			if isExecNotFound(err) {
				tried = append(tried, candidate[0])
				continue
			}
			return RunResult{}, err
		}
		pid := cmd.Process.Pid
		e.tracker.addDetached(pid)
		// Reap the child when it exits so it does not linger as a zombie.
		go func() { _ = cmd.Wait() }()

		log.Debug().Int("pid", pid).Strs("cmd", candidate).Msg("Detached process started")

		res := RunResult{
			Cmd:      candidate,
			Cwd:      relCwd,
			Success:  true,
			Detached: true,
			Pid:      pid,
			Message:  "process started in background",
		}
		if req.WaitForReady {
			ready, running := e.waitForPortReady(pid, readyPort, readyTimeout)
			res.Success = ready || running
			res.Ready = ready
			res.ReadyPort = readyPort
			res.ReadyTimeoutSec = readyTimeout
			if ready {
				res.Message = fmt.Sprintf("process is running and ready on localhost:%d", readyPort)
			} else {
				res.Message = fmt.Sprintf("process started in background; readiness not confirmed within %ds", readyTimeout)
			}
		}
		return res, nil
	}
	if len(tried) == 0 {
		tried = []string{req.Cmd[0]}
	}
	return RunResult{}, fmt.Errorf("%w: %q (tried: %s)", ErrNotFound, req.Cmd[0], strings.Join(tried, ", "))
}

func (e *Engine) runForeground(ctx context.Context, req Request, fullCwd, relCwd string, soft, max int, adaptive bool) (RunResult, error) {
	var tried []string
	for _, candidate := range commandCandidates(req.Cmd) {
		cmd := exec.Command(candidate[0], candidate[1:]...)
		cmd.Dir = fullCwd
		cmd.Env = os.Environ()
		setForegroundSysProcAttr(cmd)

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return RunResult{}, err
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return RunResult{}, err
		}

		if err := cmd.Start(); err != nil {
			if isExecNotFound(err) {
				tried = append(tried, candidate[0])
				continue
			}
			return RunResult{}, err
		}

		e.tracker.setForeground(cmd)

		var (
			outBuf, errBuf strings.Builder
			drain          sync.WaitGroup
		)
		drain.Add(2)
		go e.drainStream(stdout, &outBuf, "stdout", req.StreamOutput, &drain)
		go e.drainStream(stderr, &errBuf, "stderr", req.StreamOutput, &drain)

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		timedOut := false
		extended := false
		var waitErr error

		select {
		case waitErr = <-done:
		case <-ctx.Done():
			terminateProcessTree(cmd)
			<-done
			e.tracker.setForeground(nil)
			return RunResult{}, ctx.Err()
		case <-time.After(time.Duration(soft) * time.Second):
			if adaptive && max > soft {
				extended = true
				select {
				case waitErr = <-done:
				case <-ctx.Done():
					terminateProcessTree(cmd)
					<-done
					e.tracker.setForeground(nil)
					return RunResult{}, ctx.Err()
				case <-time.After(time.Duration(max-soft) * time.Second):
					timedOut = true
					terminateProcessTree(cmd)
					<-done
				}
			} else {
				timedOut = true
				terminateProcessTree(cmd)
				<-done
			}
		}
		e.tracker.setForeground(nil)

		drainDone := make(chan struct{})
		go func() {
			drain.Wait()
			close(drainDone)
		}()
		select {
		case <-drainDone:
		case <-time.After(streamDrainTimeout):
		}

		stdoutText := outBuf.String()
		stderrText := errBuf.String()

		policy := "fixed"
		if adaptive {
			policy = "adaptive"
		}

		if timedOut {
			if strings.TrimSpace(stderrText) == "" {
				stderrText = "process timed out and did not flush output after termination"
			}
			msg := fmt.Sprintf("command timed out after %ds", max)
			if max != soft {
				msg = fmt.Sprintf("command timed out after %ds and auto-extended to %ds", soft, max)
			}
			return RunResult{
				Cmd:             candidate,
				Cwd:             relCwd,
				TimedOut:        true,
				TimeoutExtended: extended,
				TimeoutSec:      max,
				TimeoutPolicy:   policy,
				Stdout:          stdoutText,
				Stderr:          stderrText,
				Message:         msg,
			}, nil
		}

		exitCode := 0
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				return RunResult{}, waitErr
			}
		}

		timeoutSec := soft
		if adaptive {
			timeoutSec = max
		}
		return RunResult{
			Cmd:             candidate,
			Cwd:             relCwd,
			Success:         exitCode == 0,
			ExitCode:        exitCode,
			Stdout:          stdoutText,
			Stderr:          stderrText,
			TimeoutSec:      timeoutSec,
			TimeoutPolicy:   policy,
			TimeoutExtended: extended,
		}, nil
	}
	if len(tried) == 0 {
		tried = []string{req.Cmd[0]}
	}
	return RunResult{}, fmt.Errorf("%w: %q (tried: %s)", ErrNotFound, req.Cmd[0], strings.Join(tried, ", "))
}

func (e *Engine) drainStream(r io.Reader, buf *strings.Builder, label string, mirror bool, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if mirror && e.mirror != nil && strings.TrimSpace(line) != "" {
			e.mirror(label, line)
		}
	}
}

func (e *Engine) waitForPortReady(pid, port, timeoutSec int) (ready, running bool) {
	if timeoutSec < 1 {
		timeoutSec = 1
	}
	deadline := time.Now().Add(time.Duration(timeoutSec) * time.Second)
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	for time.Now().Before(deadline) {
		if !pidIsRunning(pid) {
			return false, false
		}
		conn, err := net.DialTimeout("tcp", addr, readyDialTimeout)
		if err == nil {
			_ = conn.Close()
			return true, true
		}
		time.Sleep(readyPollInterval)
	}
	return false, pidIsRunning(pid)
}

// StopPid stops one detached process previously started by this session. It
// sends a polite termination signal first and escalates to a hard kill if
// the process does not exit within the grace period.
func (e *Engine) StopPid(pid int) (StopResult, error) {
	if pid <= 0 {
		return StopResult{}, fmt.Errorf("stop_pid must be a positive integer")
	}
	if !e.tracker.IsTracked(pid) {
		return StopResult{}, fmt.Errorf("%w: pid %d", ErrNotTracked, pid)
	}

	if !pidIsRunning(pid) {
		e.tracker.removeDetached(pid)
		return StopResult{Pid: pid, Stopped: true, Message: "process was already not running"}, nil
	}

	if err := signalTerm(pid); err != nil {
		if !pidIsRunning(pid) {
			e.tracker.removeDetached(pid)
			return StopResult{Pid: pid, Stopped: true, Message: "process exited before stop request completed"}, nil
		}
		return StopResult{}, fmt.Errorf("stopping pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(stopGracePeriod)
	for time.Now().Before(deadline) {
		if !pidIsRunning(pid) {
			e.tracker.removeDetached(pid)
			return StopResult{Pid: pid, Stopped: true, Message: "process stopped"}, nil
		}
		time.Sleep(stopPollInterval)
	}

	if err := forceKill(pid); err != nil {
		return StopResult{}, fmt.Errorf("force-stopping pid %d: %w", pid, err)
	}
	e.tracker.removeDetached(pid)
	return StopResult{Pid: pid, Stopped: true, Message: "forced stop"}, nil
}

// StopActiveForeground terminates the currently running foreground command,
// if any. Returns true when a stop attempt was made.
func (e *Engine) StopActiveForeground() bool {
	cmd := e.tracker.currentForeground()
	if cmd == nil {
		return false
	}
	terminateProcessTree(cmd)
	return true
}

// StopAllTracked stops every detached process started in this session and
// returns the number of pids targeted. Failures on individual pids do not
// abort the sweep.
func (e *Engine) StopAllTracked() int {
	pids := e.tracker.DetachedPids()
	for _, pid := range pids {
		if _, err := e.StopPid(pid); err != nil {
			log.Debug().Int("pid", pid).Err(err).Msg("Stop during shutdown failed")
		}
	}
	return len(pids)
}
