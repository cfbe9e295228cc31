package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harun/baxter/pkg/agent"
	"github.com/harun/baxter/pkg/tool"
	"github.com/harun/baxter/pkg/toolcall"
)

const spinnerInterval = 200 * time.Millisecond

// Console implements agent.UI on a terminal.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	tty bool

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	dim    *color.Color
}

// NewConsole builds a console on stdin/stdout.
func NewConsole() *Console {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return newConsole(os.Stdin, os.Stdout, tty)
}

// NewConsoleIO builds a console over explicit streams. The output is not
// treated as a terminal, so the working indicator prints a single line
// instead of animating.
func NewConsoleIO(in io.Reader, out io.Writer) *Console {
	return newConsole(in, out, false)
}

func newConsole(in io.Reader, out io.Writer, tty bool) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		tty:    tty,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
}

// Banner prints the startup header.
func (c *Console) Banner(provider, model, workspace string) {
	fmt.Fprintln(c.out, c.green.Sprint("Baxter coding agent"))
	fmt.Fprintf(c.out, "  provider:  %s\n", provider)
	fmt.Fprintf(c.out, "  model:     %s\n", model)
	fmt.Fprintf(c.out, "  workspace: %s\n", workspace)
	fmt.Fprintln(c.out, c.dim.Sprint("  type /help for commands, exit to quit"))
	fmt.Fprintln(c.out)
}

var (
	mdHeading = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdBold    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdUnder   = regexp.MustCompile(`__(.*?)__`)
	mdCode    = regexp.MustCompile("`([^`]*)`")
)

func stripMarkdown(text string) string {
	cleaned := mdHeading.ReplaceAllString(text, "")
	cleaned = mdBold.ReplaceAllString(cleaned, "$1")
	cleaned = mdUnder.ReplaceAllString(cleaned, "$1")
	cleaned = mdCode.ReplaceAllString(cleaned, "$1")
	return cleaned
}

// PrintAssistantReply prints a labelled assistant message with light
// markdown stripped.
func (c *Console) PrintAssistantReply(text string) {
	lines := strings.Split(stripMarkdown(text), "\n")
	fmt.Fprintf(c.out, "▢ %s %s\n", c.green.Sprint("Baxter:"), lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintln(c.out, line)
	}
}

// PrintError prints an error line.
func (c *Console) PrintError(msg string) {
	fmt.Fprintln(c.out, c.red.Sprint(msg))
}

// NotifyToolStep announces a tool call before it runs.
func (c *Console) NotifyToolStep(index int, inv *toolcall.Invocation) {
	c.PrintSeparator(fmt.Sprintf("Tool Step %d", index))
	fmt.Fprintf(c.out, "%s%s\n", c.green.Sprintf("[Tool %d] ", index), inv.Tool)
}

func resultStatus(res tool.Result) string {
	if !res.OK {
		return "error"
	}
	if code, ok := res.IntField("exit_code"); ok && code != 0 {
		return "failed"
	}
	return "ok"
}

// NotifyToolResult prints a structured summary of one tool result.
func (c *Console) NotifyToolResult(res tool.Result) {
	status := resultStatus(res)
	statusColor := c.green
	switch status {
	case "failed":
		statusColor = c.yellow
	case "error":
		statusColor = c.red
	}
	fmt.Fprintf(c.out, "  status: %s\n", statusColor.Sprint(status))

	cmd := resultCmd(res)
	if len(cmd) > 0 {
		fmt.Fprintf(c.out, "%s %s\n", c.dim.Sprint("  command:"), strings.Join(cmd, " "))
		if stage := ClassifyRunCmdStep(cmd); stage != "" {
			fmt.Fprintln(c.out, c.dim.Sprintf("  step: %s", stage))
		}
	}
	if cwd := res.StringField("cwd"); cwd != "" {
		fmt.Fprintf(c.out, "  cwd: %s\n", cwd)
	}
	if code, ok := res.IntField("exit_code"); ok {
		fmt.Fprintf(c.out, "  exit_code: %d\n", code)
	}
	if v, ok := res.Field("success"); ok {
		fmt.Fprintf(c.out, "  success: %v\n", v == true)
	}
	if v, ok := res.Field("timed_out"); ok && v == true {
		if tsec, ok := res.IntField("timeout_sec"); ok {
			fmt.Fprintln(c.out, c.red.Sprintf("  result: timed out after %ds", tsec))
		} else {
			fmt.Fprintln(c.out, c.red.Sprint("  result: timed out"))
		}
	}
	if v, ok := res.Field("detached"); ok && v == true {
		if pid, ok := res.IntField("pid"); ok {
			fmt.Fprintln(c.out, c.green.Sprintf("  process: running in background (pid %d)", pid))
		} else {
			fmt.Fprintln(c.out, c.green.Sprint("  process: running in background"))
		}
	} else if pid, ok := res.IntField("pid"); ok {
		fmt.Fprintf(c.out, "  pid: %d\n", pid)
	}
	if v, ok := res.Field("stopped"); ok {
		if v == true {
			fmt.Fprintln(c.out, c.green.Sprint("  process: stopped"))
		} else {
			fmt.Fprintln(c.out, c.yellow.Sprint("  process: still running"))
		}
	}
	if msg := res.StringField("message"); msg != "" {
		fmt.Fprintf(c.out, "  message: %s\n", msg)
	}
	if status == "failed" {
		fmt.Fprintln(c.out, c.yellow.Sprint("  result: command failed (non-zero exit code)"))
	}
	if res.Error != "" {
		fmt.Fprintf(c.out, "  error: %s\n", res.Error)
	}

	stdout := strings.TrimSpace(res.StringField("stdout"))
	stderr := strings.TrimSpace(res.StringField("stderr"))
	if status == "ok" && IsNoisyInstallCommand(cmd) {
		if summary := SummarizeInstallOutput(stdout, stderr); summary != "" {
			fmt.Fprintln(c.out, c.dim.Sprintf("  summary: %s", summary))
		}
		fmt.Fprintln(c.out, c.dim.Sprint("  output: suppressed noisy install logs"))
		stdout, stderr = "", ""
	} else {
		stdout = agent.Clip(stdout)
		stderr = agent.Clip(stderr)
	}
	if stdout != "" {
		fmt.Fprintln(c.out, "  stdout:")
		c.printIndented(stdout)
	}
	if stderr != "" {
		fmt.Fprintln(c.out, "  stderr:")
		c.printIndented(stderr)
	}

	if v, ok := res.Field("diff_available"); ok && v == true {
		added, _ := res.IntField("added_lines")
		removed, _ := res.IntField("removed_lines")
		fmt.Fprintf(c.out, "  diff: %s %s\n",
			c.green.Sprintf("(+%d -%d)", added, removed),
			c.dim.Sprint("type /lastdiff to view"))
	}
}

func (c *Console) printIndented(text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(c.out, "    %s\n", line)
	}
}

// resultCmd reads the command vector field, tolerating both decoded shapes.
func resultCmd(res tool.Result) []string {
	v, ok := res.Field("cmd")
	if !ok {
		return nil
	}
	switch parts := v.(type) {
	case []string:
		return parts
	case []any:
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s, ok := p.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// AskYesNo prompts until the user answers. Enter defaults to no. When a
// preview is available, p renders it and asks again.
func (c *Console) AskYesNo(prompt string, preview func() string) bool {
	for {
		fmt.Fprint(c.out, prompt)
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		case "p":
			if preview != nil {
				c.PrintColoredDiff(preview())
				continue
			}
		}
		fmt.Fprintln(c.out, "Enter y, n, or p.")
	}
}

// Working shows the spinner until the returned stop function is called.
func (c *Console) Working() func() {
	const label = "▢ Baxter is working"
	if !c.tty {
		fmt.Fprintln(c.out, c.dim.Sprintf("%s...", label))
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		frames := []string{"   ", ".  ", ".. ", "..."}
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-done:
				fmt.Fprint(c.out, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(c.out, "\r%s%s", c.dim.Sprint(label), frames[i%len(frames)])
				i++
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// Mirror streams live foreground process output. Stderr lines are dimmed.
func (c *Console) Mirror(label, line string) {
	if label == "stderr" {
		fmt.Fprintf(c.out, "  %s\n", c.dim.Sprint(line))
		return
	}
	fmt.Fprintf(c.out, "  %s\n", line)
}

// PrintColoredDiff prints a unified diff with +/- coloring.
func (c *Console) PrintColoredDiff(diffText string) {
	if strings.TrimSpace(diffText) == "" {
		fmt.Fprintln(c.out, "No diff content.")
		return
	}
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"):
			fmt.Fprintln(c.out, c.green.Sprint(line))
		case strings.HasPrefix(line, "---"):
			fmt.Fprintln(c.out, c.red.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(c.out, c.yellow.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(c.out, c.green.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(c.out, c.red.Sprint(line))
		default:
			fmt.Fprintln(c.out, line)
		}
	}
}

// PrintSeparator prints a labelled horizontal rule.
func (c *Console) PrintSeparator(label string) {
	const width = 100
	text := " " + label + " "
	rail := width - len(text)
	if rail < 4 {
		rail = 4
	}
	left := rail / 2
	right := rail - left
	fmt.Fprintln(c.out, c.green.Sprint("\n"+strings.Repeat("-", left)+text+strings.Repeat("-", right)))
}

// PrintProviders lists known providers, marking the active one and whether
// a key is configured.
func (c *Console) PrintProviders(active string) {
	fmt.Fprintln(c.out, c.green.Sprint("Providers:"))
	for _, name := range agent.KnownProviders() {
		marker := " "
		if name == active {
			marker = "*"
		}
		keyState := "missing key"
		if agent.HasKey(name) {
			keyState = "ready"
		}
		fmt.Fprintln(c.out, c.green.Sprintf("  [%s] %s (%s)", marker, name, keyState))
		fmt.Fprintln(c.out, c.green.Sprintf("      %s", agent.DefaultModel(name)))
	}
}

// PrintModels lists the models of a provider.
func (c *Console) PrintModels(provider, current string) {
	spec, ok := agent.Spec(provider)
	if !ok {
		c.PrintError(fmt.Sprintf("unknown provider: %s", provider))
		return
	}
	fmt.Fprintln(c.out, c.green.Sprintf("Models for %s:", provider))
	fmt.Fprintln(c.out, c.green.Sprintf("  current: %s", current))
	for _, model := range spec.Models {
		fmt.Fprintln(c.out, c.green.Sprintf("  - %s", model))
	}
}

// PickFromList prints a numbered list and reads a choice. Returns -1 when
// the user cancels with an empty or invalid answer.
func (c *Console) PickFromList(title string, options []string) int {
	if len(options) == 0 {
		return -1
	}
	fmt.Fprintln(c.out, c.green.Sprint(title))
	for i, option := range options {
		fmt.Fprintln(c.out, c.green.Sprintf("  %d) %s", i+1, option))
	}
	fmt.Fprint(c.out, "Choose number (Enter to cancel): ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return -1
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(options) {
		return -1
	}
	return choice - 1
}

// PrintHelp lists the slash commands.
func (c *Console) PrintHelp() {
	fmt.Fprintln(c.out, c.green.Sprint("Commands:"))
	fmt.Fprintln(c.out, c.green.Sprint("  /providers (list providers and key status)"))
	fmt.Fprintln(c.out, c.green.Sprint("  /models    (list or switch provider/model)"))
	fmt.Fprintln(c.out, c.green.Sprint("  /lastdiff  (show the last applied diff)"))
	fmt.Fprintln(c.out, c.green.Sprint("  /help      (this message)"))
}

// ReadUserInput reads one prompt line. Returns io.EOF when input ends.
func (c *Console) ReadUserInput() (string, error) {
	fmt.Fprint(c.out, "▣ You: ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
