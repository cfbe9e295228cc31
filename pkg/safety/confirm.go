package safety

import (
	"fmt"
	"strings"

	"github.com/harun/baxter/pkg/toolcall"
)

// PreviewKind says which preview, if any, the confirmation prompt offers.
type PreviewKind int

const (
	PreviewNone PreviewKind = iota
	PreviewDiff
	PreviewOverwrite
)

// Confirmation describes whether an invocation needs an interactive yes/no
// before running and what prompt to show.
type Confirmation struct {
	Required bool
	Prompt   string
	Preview  PreviewKind
}

var serverBins = map[string]struct{}{
	"npm": {}, "npm.cmd": {}, "npx": {}, "npx.cmd": {}, "yarn": {}, "pnpm": {},
}

func startsServerProcess(args map[string]any) bool {
	if boolArg(args, "detach") {
		return true
	}
	words := cmdWords(args)
	if len(words) == 0 {
		return false
	}
	if _, ok := serverBins[words[0]]; !ok {
		return false
	}
	rest := words[1:]
	has := func(want string) bool {
		for _, w := range rest {
			if w == want {
				return true
			}
		}
		return false
	}
	return (has("run") && has("dev")) || has("start") || has("dev")
}

// RequiredConfirmation returns the confirmation policy for inv. Deletions,
// in-place edits, explicit overwrites, git push, git rm, and commands that
// start long-running processes all require a yes from the user.
func RequiredConfirmation(inv *toolcall.Invocation) Confirmation {
	if inv == nil {
		return Confirmation{}
	}
	switch inv.Tool {
	case "run_cmd":
		if startsServerProcess(inv.Args) {
			text := cmdText(inv.Args)
			if len(text) > 80 {
				text = text[:77] + "..."
			}
			return Confirmation{
				Required: true,
				Prompt:   fmt.Sprintf("Start process %q now? [y/N]: ", text),
			}
		}
	case "delete_path":
		return Confirmation{
			Required: true,
			Prompt:   fmt.Sprintf("Confirm delete_path for %q? [y/N]: ", stringArg(inv.Args, "path")),
		}
	case "apply_diff":
		return Confirmation{
			Required: true,
			Prompt:   fmt.Sprintf("Confirm apply_diff to %q? [y/N] (press p to preview): ", stringArg(inv.Args, "path")),
			Preview:  PreviewDiff,
		}
	case "write_file":
		if boolArg(inv.Args, "overwrite") {
			return Confirmation{
				Required: true,
				Prompt:   fmt.Sprintf("Confirm overwrite write_file for %q? [y/N] (press p to preview): ", stringArg(inv.Args, "path")),
				Preview:  PreviewOverwrite,
			}
		}
	case "git_cmd":
		switch strings.ToLower(strings.TrimSpace(stringArg(inv.Args, "subcommand"))) {
		case "push":
			return Confirmation{Required: true, Prompt: "Confirm git push? [y/N]: "}
		case "rm":
			return Confirmation{Required: true, Prompt: "Confirm git rm (delete tracked files)? [y/N]: "}
		}
	}
	return Confirmation{}
}
