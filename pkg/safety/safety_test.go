package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harun/baxter/pkg/toolcall"
)

func inv(tool string, args map[string]any) *toolcall.Invocation {
	return &toolcall.Invocation{Tool: tool, Args: args}
}

func TestMutatingInvocation(t *testing.T) {
	tests := []struct {
		name     string
		inv      *toolcall.Invocation
		mutating bool
	}{
		{"nil", nil, false},
		{"read_file", inv("read_file", map[string]any{"path": "a.txt"}), false},
		{"list_dir", inv("list_dir", nil), false},
		{"search_code", inv("search_code", map[string]any{"query": "x"}), false},
		{"apply_diff", inv("apply_diff", nil), true},
		{"delete_path", inv("delete_path", nil), true},
		{"make_dir", inv("make_dir", nil), true},
		{"run_cmd", inv("run_cmd", nil), true},
		{"write_file without overwrite still mutating", inv("write_file", map[string]any{"overwrite": false}), true},
		{"write_file with overwrite", inv("write_file", map[string]any{"overwrite": true}), true},
		{"git status", inv("git_cmd", map[string]any{"subcommand": "status"}), false},
		{"git log", inv("git_cmd", map[string]any{"subcommand": "log"}), false},
		{"git commit", inv("git_cmd", map[string]any{"subcommand": "commit"}), true},
		{"git push", inv("git_cmd", map[string]any{"subcommand": "push"}), true},
		{"git rm", inv("git_cmd", map[string]any{"subcommand": " RM "}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mutating, MutatingInvocation(tt.inv))
		})
	}
}

func TestRequestAllowsMutation(t *testing.T) {
	tests := []struct {
		text  string
		allow bool
	}{
		{"", false},
		{"what is in config.yaml?", false},
		{"show me the contents of main.py", false},
		{"view app.js", false},
		{"edit config.yaml to add a database section", true},
		{"fix the bug in server.py", true},
		{"commit and push everything", true},
		{"run the test suite", true},
		{"delete old_notes.txt", true},
		{"how does the parser work?", false},
		{"tell me about this repo", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.allow, RequestAllowsMutation(tt.text))
		})
	}
}

func TestGate(t *testing.T) {
	guarded := NewGate("groq", "llama-3.3-70b-versatile")
	assert.True(t, guarded.GuardActive())
	assert.True(t, guarded.BlocksMutation("what is in config.yaml?", inv("write_file", nil)))
	assert.False(t, guarded.BlocksMutation("what is in config.yaml?", inv("read_file", nil)))
	assert.False(t, guarded.BlocksMutation("edit config.yaml to add X", inv("write_file", nil)))

	for _, g := range []*Gate{
		NewGate("anthropic", "claude-sonnet"),
		NewGate("openai", "gpt-4o"),
		NewGate("groq", "mixtral-8x7b"),
	} {
		assert.False(t, g.GuardActive())
		assert.False(t, g.BlocksMutation("what is in config.yaml?", inv("write_file", nil)))
	}
}

func TestRequiredConfirmation(t *testing.T) {
	t.Run("delete_path", func(t *testing.T) {
		c := RequiredConfirmation(inv("delete_path", map[string]any{"path": "old.txt"}))
		assert.True(t, c.Required)
		assert.Contains(t, c.Prompt, `"old.txt"`)
		assert.Equal(t, PreviewNone, c.Preview)
	})

	t.Run("apply_diff offers preview", func(t *testing.T) {
		c := RequiredConfirmation(inv("apply_diff", map[string]any{"path": "main.py"}))
		assert.True(t, c.Required)
		assert.Equal(t, PreviewDiff, c.Preview)
		assert.Contains(t, c.Prompt, "press p to preview")
	})

	t.Run("write_file only when overwriting", func(t *testing.T) {
		c := RequiredConfirmation(inv("write_file", map[string]any{"path": "a.txt", "overwrite": true}))
		assert.True(t, c.Required)
		assert.Equal(t, PreviewOverwrite, c.Preview)

		c = RequiredConfirmation(inv("write_file", map[string]any{"path": "a.txt"}))
		assert.False(t, c.Required)
	})

	t.Run("git push and rm", func(t *testing.T) {
		assert.True(t, RequiredConfirmation(inv("git_cmd", map[string]any{"subcommand": "push"})).Required)
		assert.True(t, RequiredConfirmation(inv("git_cmd", map[string]any{"subcommand": "rm"})).Required)
		assert.False(t, RequiredConfirmation(inv("git_cmd", map[string]any{"subcommand": "status"})).Required)
	})

	t.Run("run_cmd server starts", func(t *testing.T) {
		c := RequiredConfirmation(inv("run_cmd", map[string]any{"cmd": []any{"npm", "run", "dev"}}))
		assert.True(t, c.Required)
		assert.Contains(t, c.Prompt, "npm run dev")

		c = RequiredConfirmation(inv("run_cmd", map[string]any{"cmd": []any{"yarn", "start"}}))
		assert.True(t, c.Required)

		c = RequiredConfirmation(inv("run_cmd", map[string]any{
			"cmd":    []any{"python3", "server.py"},
			"detach": true,
		}))
		assert.True(t, c.Required)

		c = RequiredConfirmation(inv("run_cmd", map[string]any{"cmd": []any{"python3", "--version"}}))
		assert.False(t, c.Required)

		c = RequiredConfirmation(inv("run_cmd", map[string]any{"cmd": []any{"npm", "install"}}))
		assert.False(t, c.Required)
	})

	t.Run("tools that run without confirmation", func(t *testing.T) {
		for _, tool := range []string{"read_file", "list_dir", "search_code", "make_dir"} {
			assert.False(t, RequiredConfirmation(inv(tool, nil)).Required, tool)
		}
	})
}
