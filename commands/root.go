// Package commands implements the maestro CLI. Every command resolves its
// configuration the same way: defaults, then the user config, then the
// workspace config, then flags.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/config"
)

// rootState carries the resolved configuration into subcommands.
type rootState struct {
	cfg    *config.Config
	logger *slog.Logger

	configPath string
	repoPath   string
	workspace  string
	backend    string
	logLevel   string
}

// Root builds the maestro command tree.
func Root(version, buildTime string) *cobra.Command {
	state := &rootState{}

	cmd := &cobra.Command{
		Use:   "maestro",
		Short: "Deterministic pair-programming workflow engine",
		Long: `Maestro turns a task description into an approved, step-by-step
execution plan: it scans the workspace to profile the tech stack, classifies
the task, selects the agent pipeline, and then walks the plan through
explicit human approval gates.

Plans are persisted; a restart resumes exactly where the last completed step
left off.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&state.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&state.repoPath, "repo", "", "Workspace root to operate on (default: current directory)")
	flags.StringVar(&state.workspace, "workspace", "", "Workspace id (default: derived from the root directory name)")
	flags.StringVar(&state.backend, "backend", "", "Plan store backend: file or nats")
	flags.StringVar(&state.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newInitCmd(state),
		newScanCmd(state),
		newPlanCmd(state),
		newApproveCmd(state),
		newRejectCmd(state),
		newAnswerCmd(state),
		newStatusCmd(state),
		newRunCmd(state),
		newChangeCmd(state),
		newAbortCmd(state),
		newServeCmd(state),
		newVersionCmd(version, buildTime),
	)
	return cmd
}

// setup resolves configuration and logging for a command invocation.
func (s *rootState) setup() error {
	level := slog.LevelWarn
	switch strings.ToLower(s.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(s.logger)

	var cfg *config.Config
	if s.configPath != "" {
		loaded, err := config.LoadFromFile(s.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		loaded, err := config.NewLoader(s.logger).Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if s.repoPath != "" {
		cfg.Workspace.Root = s.repoPath
	}
	if s.backend != "" {
		cfg.Store.Backend = s.backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s.cfg = cfg
	return nil
}

// app builds the wired application. Callers own the shutdown.
func (s *rootState) app(cmd *cobra.Command) (*App, error) {
	a, err := newApp(cmd.Context(), s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if s.workspace != "" {
		a.workspace = s.workspace
	}
	return a, nil
}

func newVersionCmd(version, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("maestro version %s (build: %s)\n", version, buildTime)
		},
	}
}
