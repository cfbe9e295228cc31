package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harun/baxter/pkg/tool"
	"github.com/harun/baxter/pkg/toolcall"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return newConsole(strings.NewReader(input), &out, false), &out
}

func TestPrintAssistantReply(t *testing.T) {
	c, out := newTestConsole("")

	c.PrintAssistantReply("## Done\nCreated **main.py** with `print`.")

	got := out.String()
	assert.Contains(t, got, "Baxter:")
	assert.Contains(t, got, "Done")
	assert.Contains(t, got, "Created main.py with print.")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "##")
}

func TestNotifyToolStep(t *testing.T) {
	c, out := newTestConsole("")

	c.NotifyToolStep(2, &toolcall.Invocation{Tool: "apply_diff"})

	assert.Contains(t, out.String(), " Tool Step 2 ")
	assert.Contains(t, out.String(), "----")
	assert.Contains(t, out.String(), "[Tool 2]")
	assert.Contains(t, out.String(), "apply_diff")
}

func TestNotifyToolResult_Statuses(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, out := newTestConsole("")
		c.NotifyToolResult(tool.Ok(map[string]any{"path": "a.txt"}))
		assert.Contains(t, out.String(), "status: ok")
	})

	t.Run("failed on non-zero exit", func(t *testing.T) {
		c, out := newTestConsole("")
		c.NotifyToolResult(tool.Ok(map[string]any{
			"cmd":       []string{"python3", "main.py"},
			"exit_code": 2,
			"stderr":    "boom",
		}))
		got := out.String()
		assert.Contains(t, got, "status: failed")
		assert.Contains(t, got, "command: python3 main.py")
		assert.Contains(t, got, "command failed (non-zero exit code)")
		assert.Contains(t, got, "stderr:")
		assert.Contains(t, got, "boom")
	})

	t.Run("error", func(t *testing.T) {
		c, out := newTestConsole("")
		c.NotifyToolResult(tool.Fail("not found: %s", "x.txt"))
		got := out.String()
		assert.Contains(t, got, "status: error")
		assert.Contains(t, got, "error: not found: x.txt")
	})
}

func TestNotifyToolResult_DetachedProcess(t *testing.T) {
	c, out := newTestConsole("")
	c.NotifyToolResult(tool.Ok(map[string]any{
		"cmd":      []string{"npm", "run", "dev"},
		"detached": true,
		"pid":      4242,
	}))
	got := out.String()
	assert.Contains(t, got, "running in background (pid 4242)")
	assert.Contains(t, got, "step: starting dev server")
}

func TestNotifyToolResult_SuppressesNoisyInstallLogs(t *testing.T) {
	c, out := newTestConsole("")
	c.NotifyToolResult(tool.Ok(map[string]any{
		"cmd":       []string{"npm", "install"},
		"exit_code": 0,
		"stdout":    "lots of noise\nadded 10 packages\nmore noise",
	}))
	got := out.String()
	assert.Contains(t, got, "summary: added 10 packages")
	assert.Contains(t, got, "suppressed noisy install logs")
	assert.NotContains(t, got, "lots of noise")
}

func TestNotifyToolResult_DiffHint(t *testing.T) {
	c, out := newTestConsole("")
	c.NotifyToolResult(tool.Ok(map[string]any{
		"diff_available": true,
		"added_lines":    3,
		"removed_lines":  1,
	}))
	assert.Contains(t, out.String(), "(+3 -1)")
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "yes\n", true},
		{"no", "n\n", false},
		{"enter defaults to no", "\n", false},
		{"eof defaults to no", "", false},
		{"invalid then yes", "maybe\ny\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConsole(tt.input)
			assert.Equal(t, tt.want, c.AskYesNo("Proceed? [y/N]: ", nil))
		})
	}

	t.Run("p shows preview and asks again", func(t *testing.T) {
		c, out := newTestConsole("p\nn\n")
		got := c.AskYesNo("Apply? [y/N] (press p to preview): ", func() string {
			return "-old\n+new"
		})
		assert.False(t, got)
		assert.Contains(t, out.String(), "+new")
	})

	t.Run("p without preview is invalid", func(t *testing.T) {
		c, out := newTestConsole("p\nn\n")
		assert.False(t, c.AskYesNo("Delete? [y/N]: ", nil))
		assert.Contains(t, out.String(), "Enter y, n, or p.")
	})
}

func TestWorking_NonTTY(t *testing.T) {
	c, out := newTestConsole("")
	stop := c.Working()
	stop()
	assert.Contains(t, out.String(), "Baxter is working...")
}

func TestPrintColoredDiff(t *testing.T) {
	c, out := newTestConsole("")
	c.PrintColoredDiff("--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new")
	got := out.String()
	for _, want := range []string{"--- a/x", "+++ b/x", "@@ -1 +1 @@", "-old", "+new"} {
		assert.Contains(t, got, want)
	}

	c2, out2 := newTestConsole("")
	c2.PrintColoredDiff("  \n")
	assert.Contains(t, out2.String(), "No diff content.")
}

func TestPickFromList(t *testing.T) {
	t.Run("valid choice", func(t *testing.T) {
		c, out := newTestConsole("2\n")
		got := c.PickFromList("Choose provider:", []string{"anthropic", "openai", "groq"})
		assert.Equal(t, 1, got)
		assert.Contains(t, out.String(), "1) anthropic")
		assert.Contains(t, out.String(), "3) groq")
	})

	t.Run("empty cancels", func(t *testing.T) {
		c, _ := newTestConsole("\n")
		assert.Equal(t, -1, c.PickFromList("Choose:", []string{"a"}))
	})

	t.Run("out of range cancels", func(t *testing.T) {
		c, _ := newTestConsole("9\n")
		assert.Equal(t, -1, c.PickFromList("Choose:", []string{"a", "b"}))
	})

	t.Run("no options", func(t *testing.T) {
		c, _ := newTestConsole("")
		assert.Equal(t, -1, c.PickFromList("Choose:", nil))
	})
}

func TestReadUserInput(t *testing.T) {
	c, out := newTestConsole("  hello there  \n")
	got, err := c.ReadUserInput()
	assert.NoError(t, err)
	assert.Equal(t, "hello there", got)
	assert.Contains(t, out.String(), "▣ You:")
}
