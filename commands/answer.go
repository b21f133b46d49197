package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/engine"
)

func newAnswerCmd(state *rootState) *cobra.Command {
	var questionID string

	cmd := &cobra.Command{
		Use:   "answer <answer>",
		Short: "Answer a pending blocker or clarification question",
		Long: `Answer the decision the workflow is waiting on. Without --question the
answer resolves the pending blocker; with --question it resolves the named
clarification.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()
			answer := strings.Join(args, " ")

			if questionID != "" {
				q, err := app.engine.Answer(ctx, app.workspace, questionID, answer)
				if err != nil {
					return err
				}
				fmt.Printf("Answered %s: %s\n", q.ID, q.Answer)
				return nil
			}

			plan, err := app.engine.ResolveBlocker(ctx, app.workspace, answer)
			if errors.Is(err, engine.ErrNotBlocked) {
				pending, listErr := app.engine.PendingQuestions(ctx, app.workspace)
				if listErr == nil && len(pending) > 0 {
					fmt.Println("No blocker is pending. Open clarifications:")
					printQuestions(pending)
					fmt.Println("Answer one with --question <id>.")
					return nil
				}
				return err
			}
			if err != nil {
				return err
			}

			fmt.Printf("Decision recorded. Step %d is ready to re-run; use `maestro run`.\n", plan.State.CurrentStep)
			return nil
		},
	}

	cmd.Flags().StringVarP(&questionID, "question", "q", "", "Clarification question id to answer")
	return cmd
}
