package agent

import (
	"github.com/harun/baxter/pkg/tool"
	"github.com/harun/baxter/pkg/toolcall"
)

// UI is the console surface the loop talks to. The loop never prints
// directly; a test can substitute a recording fake.
type UI interface {
	// PrintAssistantReply shows a plain (non-tool) assistant reply.
	PrintAssistantReply(text string)

	// PrintError shows a turn-level error such as a provider failure.
	PrintError(msg string)

	// NotifyToolStep announces tool step n of the current turn before it
	// runs.
	NotifyToolStep(index int, inv *toolcall.Invocation)

	// NotifyToolResult shows the outcome of a tool step.
	NotifyToolResult(res tool.Result)

	// AskYesNo asks for confirmation. preview may be nil; when set, the
	// user can request a dry-run rendering before deciding.
	AskYesNo(prompt string, preview func() string) bool

	// Working marks the span of a provider call. The returned func stops
	// the indicator.
	Working() func()
}
