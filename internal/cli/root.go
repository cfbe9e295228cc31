package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile      string
	logLevel     string
	workspace    string
	providerFlag string
	modelFlag    string
	sessionKey   string
)

// rootCmd represents the base command; without a subcommand it starts the
// interactive chat session.
var rootCmd = &cobra.Command{
	Use:   "baxter",
	Short: "Baxter - terminal coding agent",
	Long: `Baxter is an interactive coding agent for the terminal.
It edits files, runs commands, and drives git inside a sandboxed workspace,
asking for confirmation before anything destructive.`,
	Version: version,
	RunE:    runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.baxter/baxter.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Chat flags
	rootCmd.Flags().StringVar(&workspace, "workspace", "", "workspace root all tools are confined to (default is the current directory)")
	rootCmd.Flags().StringVar(&providerFlag, "provider", "", "AI provider (anthropic, openai, groq)")
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "model override for the chosen provider")
	rootCmd.Flags().StringVar(&sessionKey, "session", "", "session key to resume or create (default is a new session)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
