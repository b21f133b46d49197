package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAbortCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort the active plan and free the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			if err := app.engine.Abort(cmd.Context(), app.workspace); err != nil {
				return err
			}
			fmt.Printf("Plan aborted. Workspace %q is free for the next task.\n", app.workspace)
			return nil
		},
	}
}
