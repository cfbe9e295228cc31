package gitops

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harun/baxter/pkg/procrun"
)

var (
	// ErrDisallowed is returned for subcommands or tokens outside the
	// allowlist.
	ErrDisallowed = errors.New("git invocation not allowed")

	// ErrPrecheckFailed is returned when a push is blocked before git is
	// invoked.
	ErrPrecheckFailed = errors.New("pre-push check failed")
)

// Git subcommands the agent may run. Keep this tight.
var allowedSubcommands = map[string]struct{}{
	"status":    {},
	"log":       {},
	"diff":      {},
	"show":      {},
	"branch":    {},
	"switch":    {},
	"checkout":  {},
	"add":       {},
	"commit":    {},
	"push":      {},
	"pull":      {},
	"fetch":     {},
	"remote":    {},
	"rev-parse": {},
	"restore":   {},
	"rm":        {},
	"mv":        {},
	"stash":     {},
}

// Tokens refused because they can run arbitrary programs or point git at a
// different repository.
var disallowedTokens = map[string]struct{}{
	"--exec-path": {},
	"--git-dir":   {},
	"--work-tree": {},
	"-C":          {}, // cwd is controlled by the gateway
	"--paginate":  {},
	"--no-pager":  {},
}

const (
	defaultTimeoutSec = 60
	maxTimeoutSec     = 300
)

// Gateway validates and executes restricted git commands through the
// process engine.
type Gateway struct {
	proc *procrun.Engine
}

// New builds a Gateway over the given process engine.
func New(proc *procrun.Engine) *Gateway {
	return &Gateway{proc: proc}
}

// Command is one requested git invocation.
type Command struct {
	Subcommand string
	Args       []string
	Cwd        string
	TimeoutSec int
}

// AllowedSubcommands returns the sorted subcommand allowlist.
func AllowedSubcommands() []string {
	names := make([]string, 0, len(allowedSubcommands))
	for name := range allowedSubcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAllowedSubcommand reports whether sub (after trimming and lowercasing)
// is on the allowlist.
func IsAllowedSubcommand(sub string) bool {
	_, ok := allowedSubcommands[strings.ToLower(strings.TrimSpace(sub))]
	return ok
}

func validate(cmd Command) (Command, error) {
	sub := strings.ToLower(strings.TrimSpace(cmd.Subcommand))
	if sub == "" {
		return Command{}, fmt.Errorf("subcommand must be a non-empty string (example: %q)", "status")
	}
	if !IsAllowedSubcommand(sub) {
		return Command{}, fmt.Errorf("%w: subcommand %q (allowed: %s)", ErrDisallowed, sub, strings.Join(AllowedSubcommands(), ", "))
	}
	for _, tok := range cmd.Args {
		if _, bad := disallowedTokens[tok]; bad {
			return Command{}, fmt.Errorf("%w: token %q", ErrDisallowed, tok)
		}
		if strings.HasPrefix(tok, "--upload-pack=") || strings.HasPrefix(tok, "--receive-pack=") {
			return Command{}, fmt.Errorf("%w: upload-pack/receive-pack", ErrDisallowed)
		}
	}

	cwd := strings.TrimSpace(cmd.Cwd)
	if cwd == "" {
		cwd = "."
	}
	timeout := cmd.TimeoutSec
	if timeout < 1 || timeout > maxTimeoutSec {
		timeout = defaultTimeoutSec
	}
	return Command{Subcommand: sub, Args: cmd.Args, Cwd: cwd, TimeoutSec: timeout}, nil
}

// Run validates cmd and executes it. Push commands first verify that the
// working tree is clean; a dirty tree blocks the push before git push is
// ever invoked.
func (g *Gateway) Run(ctx context.Context, cmd Command) (procrun.RunResult, error) {
	cmd, err := validate(cmd)
	if err != nil {
		return procrun.RunResult{}, err
	}

	if cmd.Subcommand == "push" {
		if err := g.pushPreflight(ctx, cmd.Cwd); err != nil {
			return procrun.RunResult{}, err
		}
	}

	argv := append([]string{"git", cmd.Subcommand}, cmd.Args...)
	log.Debug().Strs("cmd", argv).Str("cwd", cmd.Cwd).Msg("Running git command")
	return g.proc.Run(ctx, procrun.Request{
		Cmd:           argv,
		Cwd:           cmd.Cwd,
		TimeoutSec:    cmd.TimeoutSec,
		StrictTimeout: true,
	})
}

// pushPreflight refuses to push with uncommitted changes present.
func (g *Gateway) pushPreflight(ctx context.Context, cwd string) error {
	res, err := g.proc.Run(ctx, procrun.Request{
		Cmd:           []string{"git", "status", "--porcelain"},
		Cwd:           cwd,
		TimeoutSec:    defaultTimeoutSec,
		StrictTimeout: true,
	})
	if err != nil || res.TimedOut {
		return fmt.Errorf("%w: unable to verify working tree status", ErrPrecheckFailed)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: git status returned non-zero exit code", ErrPrecheckFailed)
	}
	if strings.TrimSpace(res.Stdout) != "" {
		return fmt.Errorf("%w: uncommitted changes detected; commit or stash changes before pushing", ErrPrecheckFailed)
	}
	return nil
}
