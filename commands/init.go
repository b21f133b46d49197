package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/config"
	"github.com/maestrohq/maestro/detect"
)

func newInitCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace state directory and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			stateDir := app.stateDir()
			if err := os.MkdirAll(stateDir, 0o755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}

			configPath := filepath.Join(stateDir, config.WorkspaceConfigFile)
			if _, err := os.Stat(configPath); err == nil {
				fmt.Printf("Workspace already initialized: %s\n", configPath)
				return nil
			}

			if err := state.cfg.SaveToFile(configPath); err != nil {
				return fmt.Errorf("write workspace config: %w", err)
			}
			if err := config.NewLoader(state.logger).EnsureUserConfig(); err != nil {
				state.logger.Warn("could not write user config", "error", err)
			}

			profile, err := app.detector.Detect(app.root)
			if err != nil && !errors.Is(err, detect.ErrProfileTooSparse) {
				return err
			}
			if err := detect.SaveProfile(profile, app.profilePath()); err != nil {
				return fmt.Errorf("cache profile: %w", err)
			}

			fmt.Printf("Initialized workspace %q\n", app.workspace)
			fmt.Printf("  root:    %s\n", app.root)
			fmt.Printf("  config:  %s\n", configPath)
			fmt.Printf("  profile: %s (%d categories)\n", app.profilePath(), profile.CategoryCount())
			fmt.Println("\nNext: run `maestro plan \"<task description>\"` to draft a plan.")
			return nil
		},
	}
}
