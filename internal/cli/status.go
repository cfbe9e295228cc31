package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/baxter/internal/config"
	"github.com/harun/baxter/pkg/agent"
	"github.com/harun/baxter/pkg/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider key status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.LoadEnvFile(""); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "baxter version %s\n\n", version)
	fmt.Fprintf(out, "config:    %s\n", config.NewLoader(cfgFile).GetConfigPath())
	fmt.Fprintf(out, "workspace: %s\n", cfg.WorkspaceRoot)
	fmt.Fprintf(out, "data dir:  %s\n", cfg.DataDir)
	fmt.Fprintf(out, "log file:  %s\n\n", cfg.Logging.File)

	fmt.Fprintln(out, "providers:")
	for _, name := range agent.KnownProviders() {
		keyState := "missing key"
		if agent.HasKey(name) {
			keyState = "ready"
		}
		marker := " "
		if name == cfg.Provider {
			marker = "*"
		}
		fmt.Fprintf(out, "  [%s] %-9s %-11s %s\n", marker, name, keyState, agent.DefaultModel(name))
	}

	store, err := session.NewStore(cfg.Sessions.Dir)
	if err != nil {
		return err
	}
	keys, err := store.List()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsessions:  %d in %s\n", len(keys), cfg.Sessions.Dir)

	return nil
}
