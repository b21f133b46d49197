package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/workflow"
)

func newPlanCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <task description>",
		Short: "Draft an execution plan for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()
			description := strings.Join(args, " ")

			plan, err := app.engine.Begin(ctx, app.workspace, app.root, description)
			if err != nil {
				return err
			}

			fmt.Println(workflow.RenderDocument(plan))

			pending, err := app.engine.PendingQuestions(ctx, app.workspace)
			if err != nil {
				return err
			}
			printQuestions(pending)

			fmt.Println("Review the plan, then `maestro approve` or `maestro reject`.")
			return nil
		},
	}
}

func printQuestions(questions []*workflow.Question) {
	if len(questions) == 0 {
		return
	}
	fmt.Println("Open questions:")
	for _, q := range questions {
		fmt.Printf("  [%s] %s\n", q.ID, q.Text)
		if q.Context != "" {
			fmt.Printf("      %s\n", q.Context)
		}
		if len(q.Options) > 0 {
			fmt.Printf("      options: %s\n", strings.Join(q.Options, " | "))
		}
	}
	fmt.Println()
}
