package procrun

import (
	"os/exec"
	"sync"
)

// Tracker records the detached pids spawned in this session plus the single
// active foreground command. Stop operations consult it so that only
// processes we started can be signalled.
type Tracker struct {
	mu         sync.Mutex
	detached   map[int]struct{}
	foreground *exec.Cmd
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{detached: make(map[int]struct{})}
}

func (t *Tracker) addDetached(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached[pid] = struct{}{}
}

func (t *Tracker) removeDetached(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.detached, pid)
}

// IsTracked reports whether pid was spawned detached in this session.
func (t *Tracker) IsTracked(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.detached[pid]
	return ok
}

// DetachedPids returns a snapshot of the tracked detached pids.
func (t *Tracker) DetachedPids() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	pids := make([]int, 0, len(t.detached))
	for pid := range t.detached {
		pids = append(pids, pid)
	}
	return pids
}

func (t *Tracker) setForeground(cmd *exec.Cmd) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.foreground = cmd
}

func (t *Tracker) currentForeground() *exec.Cmd {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.foreground
}
