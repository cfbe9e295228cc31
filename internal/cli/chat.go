package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harun/baxter/internal/config"
	"github.com/harun/baxter/internal/logger"
	"github.com/harun/baxter/internal/ui"
	"github.com/harun/baxter/pkg/agent"
	"github.com/harun/baxter/pkg/coretools"
	"github.com/harun/baxter/pkg/fileops"
	"github.com/harun/baxter/pkg/gitops"
	"github.com/harun/baxter/pkg/procrun"
	"github.com/harun/baxter/pkg/sandbox"
	"github.com/harun/baxter/pkg/session"
	"github.com/harun/baxter/pkg/tool"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if workspace != "" {
		cfg.WorkspaceRoot = workspace
	}
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

// pickProvider returns the configured provider when its key is available,
// otherwise the first known provider with a key.
func pickProvider(preferred string) (string, error) {
	if preferred != "" {
		if !agent.HasKey(preferred) {
			return "", fmt.Errorf("provider %s has no API key configured", preferred)
		}
		return preferred, nil
	}
	for _, name := range agent.KnownProviders() {
		if agent.HasKey(name) {
			return name, nil
		}
	}
	return "", errors.New("no provider API key configured; run baxter configure")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer logg.Close()

	if err := config.LoadEnvFile(""); err != nil {
		return err
	}
	if !config.HasAnyProviderKey() {
		if _, err := config.NewWizard().Run(); err != nil {
			return err
		}
	}

	providerName, err := pickProvider(cfg.Provider)
	if err != nil {
		return err
	}
	provider, err := agent.NewProvider(providerName)
	if err != nil {
		return err
	}
	model := cfg.Model
	if model == "" {
		model = agent.DefaultModel(providerName)
	}

	sb, err := sandbox.New(cfg.WorkspaceRoot)
	if err != nil {
		return err
	}
	console := ui.NewConsole()
	files := fileops.New(sb)
	proc := procrun.New(sb, console.Mirror)
	defer proc.StopAllTracked()

	reg := tool.NewRegistry()
	if err := coretools.RegisterCoreTools(reg, coretools.Deps{
		Files: files,
		Proc:  proc,
		Git:   gitops.New(proc),
	}); err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Sessions.Dir)
	if err != nil {
		return err
	}
	if cfg.Sessions.RetentionDays > 0 {
		retention := time.Duration(cfg.Sessions.RetentionDays) * 24 * time.Hour
		if _, err := store.PruneOlderThan(retention); err != nil {
			console.PrintError(fmt.Sprintf("session cleanup failed: %v", err))
		}
	}
	key := sessionKey
	if key == "" {
		key = "session-" + uuid.NewString()[:8]
	}

	loop, err := agent.NewLoop(agent.Options{
		Provider: provider,
		Model:    model,
		System:   agent.BuildSystemPrompt(reg),
		Registry: reg,
		Files:    files,
		UI:       console,
		Recorder: session.NewRecorder(store, key),
	})
	if err != nil {
		return err
	}

	// Ctrl-C stops a running foreground command instead of killing the chat.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			if !proc.StopActiveForeground() {
				fmt.Println("\nUse exit to quit.")
			}
		}
	}()

	console.Banner(providerName, model, sb.Root())

	ctx := context.Background()
	for {
		text, err := console.ReadUserInput()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}
		if handleSlashCommand(text, console, loop) {
			continue
		}
		loop.RunTurn(ctx, text)
	}
}

// handleSlashCommand processes UI-level commands. Returns false when the
// text should go to the model.
func handleSlashCommand(text string, console *ui.Console, loop *agent.Loop) bool {
	t := strings.ToLower(strings.TrimSpace(text))

	switch t {
	case "v", "/lastdiff":
		diff := loop.LastDiff()
		if diff == "" {
			console.PrintError("No diff recorded yet.")
			return true
		}
		console.PrintColoredDiff(diff)
		return true
	case "/help":
		console.PrintHelp()
		return true
	case "/providers":
		console.PrintProviders(activeProviderName(loop))
		return true
	case "/models":
		switchModel(console, loop)
		return true
	}

	if strings.HasPrefix(t, "/") {
		console.PrintError("Unknown command. Type /help for commands.")
		return true
	}
	return false
}

func activeProviderName(loop *agent.Loop) string {
	return loop.Provider().Name()
}

// switchModel walks the provider/model picker and applies the choice.
// Cancelling the provider picker lists the active provider's models instead.
func switchModel(console *ui.Console, loop *agent.Loop) {
	providers := agent.KnownProviders()
	pidx := console.PickFromList("Choose provider:", providers)
	if pidx < 0 {
		console.PrintModels(activeProviderName(loop), loop.Model())
		return
	}
	name := providers[pidx]
	if !agent.HasKey(name) {
		spec, _ := agent.Spec(name)
		console.PrintError(fmt.Sprintf("Cannot switch provider: missing %s", spec.EnvKey))
		return
	}

	spec, _ := agent.Spec(name)
	midx := console.PickFromList(fmt.Sprintf("Choose model for %s:", name), spec.Models)
	if midx < 0 {
		return
	}

	provider, err := agent.NewProvider(name)
	if err != nil {
		console.PrintError(err.Error())
		return
	}
	loop.SetProvider(provider, spec.Models[midx])
	fmt.Printf("Provider set to %s. Model set to: %s\n", name, loop.Model())
}
