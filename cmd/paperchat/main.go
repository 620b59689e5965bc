// Package main provides the paperchat CLI entry point. Run without
// arguments it starts the interactive chat interface; subcommands cover
// the same backend operations headless for scripting.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"paperchat/cmd/paperchat/chat"
	"paperchat/internal/api"
	"paperchat/internal/config"
	"paperchat/internal/logging"
)

var (
	// Global flags
	configFlag  string
	apiURLFlag  string
	timeoutFlag time.Duration
	verbose     bool

	// Loaded in PersistentPreRunE, shared by every command.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "paperchat",
	Short: "paperchat - chat with your PDF library from the terminal",
	Long: `paperchat is a terminal client for a document Q&A backend.

Upload PDFs, then ask questions about them in one of three knowledge
modes (strict, augmented, expert). Answers render in the terminal as
markdown with highlighted code and typeset math.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; it only seeds PAPERCHAT_* overrides.
		_ = godotenv.Load()

		path := configFlag
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if apiURLFlag != "" {
			loaded.API.BaseURL = apiURLFlag
		}
		if timeoutFlag > 0 {
			loaded.API.Timeout = timeoutFlag.String()
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		// Logs always go to a file. The interactive program owns the
		// terminal, so only headless subcommands may mirror to stderr.
		console := verbose && cmd.Name() != rootCmd.Name()
		return logging.Initialize(cfg.Logging, logDir(path), logging.Options{Console: console})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.paperchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Backend base URL (or set PAPERCHAT_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Backend request timeout (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logDir keeps log files next to the config they came from.
func logDir(configFile string) string {
	return filepath.Join(filepath.Dir(configFile), "logs")
}

// backendClient builds the REST client every command talks through.
func backendClient() *api.Client {
	return api.NewClientWithConfig(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.GetAPITimeout(),
		UserAgent: "paperchat/" + version,
	})
}

// runInteractiveChat launches the TUI on the alternate screen.
func runInteractiveChat() error {
	logging.Boot("starting interactive chat (backend %s)", cfg.API.BaseURL)

	model := chat.New(backendClient(), cfg)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("chat interface error: %w", err)
	}
	return nil
}
