package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/engine"
	"github.com/maestrohq/maestro/workflow"
)

func newRunCmd(state *rootState) *cobra.Command {
	var single bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the plan's pipeline steps",
		Long: `Resume the active plan and execute steps in order. Execution stops at
the first failure, blocker, or approval gate. Progress is persisted after
every completed step, so an interrupted run picks up where it stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()
			plan, err := app.engine.Resume(ctx, app.workspace)
			if err != nil {
				return err
			}
			if plan.State.PendingApproval != workflow.ApprovalNone {
				fmt.Printf("Plan is awaiting %s; nothing to run.\n", plan.State.PendingApproval)
				return nil
			}

			for {
				step, result, err := app.engine.ExecuteNext(ctx, app.workspace)

				var blocker *engine.BlockerError
				switch {
				case errors.As(err, &blocker):
					fmt.Printf("Step %d (%s) is blocked: %s\n", step.Index, step.AgentID, blocker.Reason)
					if len(blocker.Options) > 0 {
						fmt.Println("Options:")
						for _, opt := range blocker.Options {
							fmt.Printf("  - %s\n", opt)
						}
					}
					fmt.Println("Decide with `maestro answer <option>`.")
					return nil
				case errors.Is(err, engine.ErrAwaitingApproval):
					fmt.Println("All steps completed. Approve the commit gate with `maestro approve`,")
					fmt.Println("then close out with `maestro run` once more or `maestro status`.")
					return nil
				case errors.Is(err, workflow.ErrNoCurrentStep):
					return finalize(cmd, app)
				case err != nil:
					return err
				}

				fmt.Printf("Step %d (%s) completed", step.Index, step.AgentID)
				if result.Output != "" {
					fmt.Printf(": %s", result.Output)
				}
				fmt.Println()

				if single {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&single, "step", false, "Execute a single step and stop")
	return cmd
}

// finalize closes out a commit-approved plan.
func finalize(cmd *cobra.Command, app *App) error {
	err := app.engine.Finalize(cmd.Context(), app.workspace)
	if errors.Is(err, engine.ErrAwaitingApproval) {
		fmt.Println("All steps completed; approve the commit gate with `maestro approve`.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Plan finalized. Workspace %q is free for the next task.\n", app.workspace)
	return nil
}
