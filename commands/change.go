package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/workflow"
)

func newChangeCmd(state *rootState) *cobra.Command {
	var (
		reason   string
		removes  []int
		insertAt int
		steps    []string
	)

	cmd := &cobra.Command{
		Use:   "change",
		Short: "Change the remaining steps of the active plan",
		Long: `Apply a mid-flight change to the plan. Only steps at or after the
current position can be removed or displaced; completed work is immutable.
A changed plan goes back through plan approval before execution resumes.

Steps are given as agent:stage:task, for example:
  --add "implementer:implementation:add a feature flag"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			drafts, err := parseStepDrafts(steps)
			if err != nil {
				return err
			}

			plan, err := app.engine.RequestChange(cmd.Context(), app.workspace, workflow.ChangeRequest{
				Reason:        reason,
				RemoveIndices: removes,
				InsertAt:      insertAt,
				NewSteps:      drafts,
			})
			if err != nil {
				return err
			}

			fmt.Println(workflow.RenderDocument(plan))
			if plan.State.PendingApproval == workflow.ApprovalPlan {
				fmt.Println("Change applied. Re-approve the plan with `maestro approve` to resume.")
			} else {
				fmt.Println("Change applied to the draft.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the plan is changing")
	cmd.Flags().IntSliceVar(&removes, "remove", nil, "Step indices to remove")
	cmd.Flags().IntVar(&insertAt, "insert-at", -1, "Index to insert new steps at (-1 appends)")
	cmd.Flags().StringArrayVar(&steps, "add", nil, "New step as agent:stage:task (repeatable)")
	cmd.MarkFlagRequired("reason")
	return cmd
}

// parseStepDrafts parses agent:stage:task step specs.
func parseStepDrafts(specs []string) ([]workflow.StepDraft, error) {
	drafts := make([]workflow.StepDraft, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid step spec %q: want agent:stage:task", spec)
		}
		drafts = append(drafts, workflow.StepDraft{
			AgentID: strings.TrimSpace(parts[0]),
			Stage:   workflow.Stage(strings.TrimSpace(parts[1])),
			Task:    strings.TrimSpace(parts[2]),
		})
	}
	return drafts, nil
}
