package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/harun/baxter/pkg/fileops"
	"github.com/harun/baxter/pkg/safety"
	"github.com/harun/baxter/pkg/tool"
	"github.com/harun/baxter/pkg/toolcall"
)

const (
	defaultTemperature = 0.2
	historyTurns       = 6
)

const retryMalformedMessage = "Your previous response looked like a tool call but was not valid JSON. " +
	`Respond again with exactly one valid JSON object on a single line in the ` +
	`form {"tool":"<tool_name>","args":{...}} and no extra text.`

const blockedGuidance = "The user's current request is read-only. " +
	"Do not call mutating tools. " +
	"Use read-only tools or answer directly."

const deniedGuidance = "The user denied this tool execution. " +
	"Do not retry the same mutating tool unless the user explicitly requests it. " +
	"Continue with safe read-only tools or provide a plain-English response."

const continueGuidance = "You are still working on the user's current request. " +
	"If the request is not fully completed yet, call the next required tool now. " +
	"Do not stop after read/search/list tools when an edit was requested. " +
	"For git requests, execute git steps yourself with tools instead of asking the user to run commands. " +
	"Only claim edits when apply_diff/write_file/delete_path succeeded with ok=true. " +
	"If blocked, explain briefly and ask one concise follow-up."

// Recorder persists transcript entries. Optional.
type Recorder interface {
	Record(role, content string) error
}

// Loop drives one conversation against a provider.
type Loop struct {
	provider Provider
	model    string
	system   string
	reg      *tool.Registry
	gate     *safety.Gate
	files    *fileops.Engine
	ui       UI
	recorder Recorder

	messages []Message
	lastDiff string
}

// Options configures a Loop.
type Options struct {
	Provider Provider
	Model    string
	System   string
	Registry *tool.Registry
	Gate     *safety.Gate
	Files    *fileops.Engine
	UI       UI
	Recorder Recorder
}

// NewLoop builds a conversation loop.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Provider == nil || opts.Registry == nil || opts.UI == nil || opts.Files == nil {
		return nil, fmt.Errorf("provider, registry, files, and ui are required")
	}
	gate := opts.Gate
	if gate == nil {
		gate = safety.NewGate(opts.Provider.Name(), opts.Model)
	}
	return &Loop{
		provider: opts.Provider,
		model:    opts.Model,
		system:   opts.System,
		reg:      opts.Registry,
		gate:     gate,
		files:    opts.Files,
		ui:       opts.UI,
		recorder: opts.Recorder,
	}, nil
}

// SetProvider switches the active provider and model mid-session and
// re-derives the safety gate for the new pair.
func (l *Loop) SetProvider(p Provider, model string) {
	l.provider = p
	l.model = model
	l.gate = safety.NewGate(p.Name(), model)
}

// Model returns the active model name.
func (l *Loop) Model() string { return l.model }

// Provider returns the active provider.
func (l *Loop) Provider() Provider { return l.provider }

// LastDiff returns the diff from the most recent successful apply_diff, or
// an empty string.
func (l *Loop) LastDiff() string { return l.lastDiff }

func (l *Loop) append(role, content string) {
	l.messages = append(l.messages, Message{Role: role, Content: content})
	if l.recorder != nil {
		if err := l.recorder.Record(role, content); err != nil {
			log.Warn().Err(err).Msg("Failed to record transcript entry")
		}
	}
}

// RunTurn processes one user request to completion: repeated provider calls
// and tool dispatches until the model answers in plain text, the user denies
// a confirmation, or the provider fails.
func (l *Loop) RunTurn(ctx context.Context, userText string) {
	l.append("user", userText)

	toolIndex := 0
	malformedRetryUsed := false

	for {
		stop := l.ui.Working()
		reply, err := l.provider.Complete(ctx, Request{
			Model:       l.model,
			System:      l.system,
			Messages:    lastNTurns(l.messages, historyTurns),
			Temperature: defaultTemperature,
		})
		stop()
		if err != nil {
			l.ui.PrintError(fmt.Sprintf("model error: %v", err))
			return
		}

		l.append("assistant", reply)
		inv := toolcall.Parse(reply)

		if inv == nil {
			if !malformedRetryUsed && toolcall.LooksLikeBrokenAttempt(reply) {
				malformedRetryUsed = true
				l.append("user", retryMalformedMessage)
				continue
			}
			l.ui.PrintAssistantReply(reply)
			return
		}

		toolIndex++
		l.ui.NotifyToolStep(toolIndex, inv)

		if l.gate.BlocksMutation(userText, inv) {
			res := tool.FailWith(
				map[string]any{"blocked": true, "tool": inv.Tool},
				"mutating tool blocked for read-only request")
			l.ui.NotifyToolResult(res)
			l.append("user", toolResultMessage(res, blockedGuidance))
			continue
		}

		conf := safety.RequiredConfirmation(inv)
		if conf.Required && !l.ui.AskYesNo(conf.Prompt, l.previewFunc(conf, inv)) {
			res := tool.FailWith(
				map[string]any{"cancelled": true, "tool": inv.Tool},
				"tool execution cancelled by user confirmation")
			l.ui.NotifyToolResult(res)
			l.append("user", toolResultMessage(res, deniedGuidance))
			return
		}

		res := l.reg.Dispatch(ctx, inv.Tool, inv.Args)
		if inv.Tool == "apply_diff" && res.OK {
			if diff := res.StringField("diff"); diff != "" {
				l.lastDiff = diff
			}
		}
		l.ui.NotifyToolResult(res)
		l.append("user", toolResultMessage(res, continueGuidance))
	}
}

// previewFunc returns the dry-run renderer for a confirmation prompt, or nil
// when the tool has no preview.
func (l *Loop) previewFunc(conf safety.Confirmation, inv *toolcall.Invocation) func() string {
	switch conf.Preview {
	case safety.PreviewDiff:
		return func() string {
			diff, err := l.files.PreviewDiff(
				argString(inv.Args, "path"),
				argString(inv.Args, "find"),
				argString(inv.Args, "replace"),
				argBool(inv.Args, "replace_all"),
			)
			if err != nil {
				return fmt.Sprintf("Cannot preview diff: %v", err)
			}
			if diff == "" {
				return "No diff changes."
			}
			return diff
		}
	case safety.PreviewOverwrite:
		return func() string {
			diff, err := l.files.PreviewOverwrite(
				argString(inv.Args, "path"),
				argString(inv.Args, "content"),
			)
			if err != nil {
				return fmt.Sprintf("Cannot preview overwrite diff: %v", err)
			}
			if diff == "" {
				return "No diff changes."
			}
			return diff
		}
	}
	return nil
}

func toolResultMessage(res tool.Result, guidance string) string {
	payload, err := json.Marshal(res)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"ok":false,"error":%q}`, err.Error()))
	}
	return "TOOL_RESULT:\n" + string(payload) + "\n\n" + guidance
}

func argString(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func argBool(args map[string]any, key string) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return false
}
