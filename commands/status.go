package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/store"
	"github.com/maestrohq/maestro/workflow"
)

func newStatusCmd(state *rootState) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the workspace's active plan and pending decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()
			plan, isDraft, err := app.engine.Status(ctx, app.workspace)
			if errors.Is(err, store.ErrPlanNotFound) {
				fmt.Printf("Workspace %q has no active plan. Start one with `maestro plan <task>`.\n", app.workspace)
				return nil
			}
			if err != nil {
				return err
			}

			if full {
				fmt.Println(workflow.RenderDocument(plan))
			} else {
				printPlanSummary(plan, isDraft)
			}

			pending, err := app.engine.PendingQuestions(ctx, app.workspace)
			if err != nil {
				return err
			}
			printQuestions(pending)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print the full plan document")
	return cmd
}

func printPlanSummary(plan *workflow.Plan, isDraft bool) {
	fmt.Printf("Workspace: %s\n", plan.Workspace)
	fmt.Printf("Task:      %s\n", plan.TaskDescription)
	fmt.Printf("Type:      %s (%s complexity, %s risk)\n",
		plan.Classification.Type, plan.Classification.Complexity, plan.Classification.Risk)
	if isDraft {
		fmt.Println("State:     draft, awaiting plan approval")
	} else {
		fmt.Printf("State:     %s", plan.State.Phase)
		if plan.State.PendingApproval != workflow.ApprovalNone {
			fmt.Printf(", awaiting %s", plan.State.PendingApproval)
		}
		fmt.Println()
	}
	fmt.Printf("Progress:  %d/%d steps completed, current step %d\n\n",
		plan.Pipeline.Completed(), len(plan.Pipeline), plan.State.CurrentStep)

	for _, step := range plan.Pipeline {
		marker := " "
		switch step.Status {
		case workflow.StepCompleted:
			marker = "x"
		case workflow.StepFailed:
			marker = "!"
		case workflow.StepBlocked:
			marker = "?"
		case workflow.StepRunning:
			marker = ">"
		}
		fmt.Printf("  [%s] %d. %s (%s): %s\n", marker, step.Index, step.AgentID, step.Stage, step.Task)
	}
	fmt.Println()
}
