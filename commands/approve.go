package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/engine"
	"github.com/maestrohq/maestro/workflow"
)

func newApproveCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [input]",
		Short: "Approve the pending plan or commit gate",
		Long: `Submit an approval at the pending gate. The input must match the
configured approval vocabulary exactly; anything else is treated as a
comment and changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "approve"
			if len(args) > 0 {
				input = strings.Join(args, " ")
			}
			return submitApproval(cmd, state, input)
		},
	}
}

func newRejectCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "reject [input]",
		Short: "Reject the pending plan or commit gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "reject"
			if len(args) > 0 {
				input = strings.Join(args, " ")
			}
			return submitApproval(cmd, state, input)
		},
	}
}

func submitApproval(cmd *cobra.Command, state *rootState, input string) error {
	app, err := state.app(cmd)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	decision, plan, err := app.engine.SubmitApproval(cmd.Context(), app.workspace, input)
	if errors.Is(err, engine.ErrQuestionsPending) {
		fmt.Println("Clarifying questions are still unanswered; the plan cannot enter execution yet.")
		if pending, qerr := app.engine.PendingQuestions(cmd.Context(), app.workspace); qerr == nil {
			printQuestions(pending)
		}
		fmt.Println("Answer them with `maestro answer --question <id> <answer>`, then approve again.")
		return nil
	}
	if err != nil {
		return err
	}

	switch decision {
	case workflow.DecisionApprove:
		if plan.State.Phase == workflow.PhaseExecution {
			fmt.Printf("Approved. Execution starts at step %d; run `maestro run`.\n", plan.State.CurrentStep)
		} else {
			fmt.Println("Approved.")
		}
	case workflow.DecisionReject:
		if plan == nil {
			fmt.Println("Rejected. The draft and its questions have been discarded.")
		} else {
			fmt.Println("Rejected. The plan stays suspended; change or abort it.")
		}
	default:
		fmt.Printf("Input %q is not in the approval vocabulary; nothing changed.\n", input)
		fmt.Println("Use one of the configured approve/reject tokens, or `maestro change` to adjust the plan.")
	}
	return nil
}
