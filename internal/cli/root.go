// Package cli implements the polyglot command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/logging"
)

// chatLogFile receives logs while the TUI owns the terminal.
const chatLogFile = "polyglot.log"

type app struct {
	version    string
	configFile string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer

	newHost func(cfg *config.Config) (engine.Host, error)
}

// NewRootCommand returns the polyglot command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{version: version, newHost: newHost})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "polyglot",
		Short: "Language detection, translation and summarization for chat messages",
		Long: `polyglot detects the language of chat messages, translates them and
summarizes long English ones using a local (Ollama) or hosted (OpenAI) model.

Run "polyglot serve" for the HTTP API or "polyglot chat" for the terminal client.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to config file (e.g. configs/polyglot.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		a.serveCommand(),
		a.chatCommand(),
		a.detectCommand(),
		a.summarizeCommand(),
		a.translateCommand(),
		a.capabilitiesCommand(),
		a.configCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads the configuration and installs the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Name() == "chat" {
		switch strings.ToLower(cfg.Logging.Output) {
		case "", "stdout", "stderr":
			cfg.Logging.Output = chatLogFile
		}
	}

	_, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logCloser = closer
	slog.Debug("configuration loaded", "engine", cfg.Engine.Backend, "store", cfg.Store.Backend)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "polyglot %s\n", a.version)
		},
	}
}
