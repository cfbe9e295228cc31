package safety

import (
	"strings"

	"github.com/harun/baxter/pkg/toolcall"
)

var mutatingTools = map[string]struct{}{
	"apply_diff":  {},
	"write_file":  {},
	"make_dir":    {},
	"delete_path": {},
	"run_cmd":     {},
}

var mutatingGitSubcommands = map[string]struct{}{
	"add":      {},
	"commit":   {},
	"push":     {},
	"pull":     {},
	"switch":   {},
	"checkout": {},
	"restore":  {},
	"rm":       {},
	"mv":       {},
	"stash":    {},
}

var readOnlyRequestHints = []string{
	"what does",
	"what is in",
	"show me",
	"read ",
	"display ",
	"contents",
	"inside",
	"cat ",
	"view ",
}

var mutatingRequestHints = []string{
	"edit",
	"change",
	"modify",
	"update",
	"fix",
	"rewrite",
	"refactor",
	"create",
	"add",
	"delete",
	"remove",
	"rename",
	"move",
	"commit",
	"push",
	"run ",
	"execute",
}

// MutatingInvocation reports whether inv can change workspace state. Every
// write_file counts as mutating, including ones that only create new files.
func MutatingInvocation(inv *toolcall.Invocation) bool {
	if inv == nil {
		return false
	}
	if _, ok := mutatingTools[inv.Tool]; ok {
		return true
	}
	if inv.Tool == "git_cmd" {
		sub := strings.ToLower(strings.TrimSpace(stringArg(inv.Args, "subcommand")))
		_, mutating := mutatingGitSubcommands[sub]
		return mutating
	}
	return false
}

// RequestAllowsMutation inspects the user's request text. Mutating hints win
// over read-only hints; question-form requests and everything else default to
// read-only.
func RequestAllowsMutation(userText string) bool {
	t := strings.ToLower(strings.TrimSpace(userText))
	if t == "" {
		return false
	}
	for _, h := range mutatingRequestHints {
		if strings.Contains(t, h) {
			return true
		}
	}
	for _, h := range readOnlyRequestHints {
		if strings.Contains(t, h) {
			return false
		}
	}
	return false
}

// Gate applies the read-only guard. The guard is engaged only for provider
// and model combinations known to call mutating tools on read-only requests.
type Gate struct {
	enforceReadOnly bool
}

// NewGate configures the gate for the active provider and model.
func NewGate(provider, model string) *Gate {
	p := strings.ToLower(strings.TrimSpace(provider))
	m := strings.ToLower(strings.TrimSpace(model))
	return &Gate{enforceReadOnly: p == "groq" && strings.Contains(m, "llama")}
}

// GuardActive reports whether the read-only guard is engaged at all.
func (g *Gate) GuardActive() bool { return g.enforceReadOnly }

// BlocksMutation reports whether inv must be refused for the given user
// request.
func (g *Gate) BlocksMutation(userText string, inv *toolcall.Invocation) bool {
	if !g.enforceReadOnly {
		return false
	}
	return !RequestAllowsMutation(userText) && MutatingInvocation(inv)
}
