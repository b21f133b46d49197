package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maestrohq/maestro/workflow"
)

// StepResult is what a step execution produced.
type StepResult struct {
	// Output is a human-readable summary of what the step did.
	Output string
	// Notes are appended to the step record.
	Notes []string
}

// BlockerError suspends execution on a decision only a human can make.
// Execution halts at the current step until the blocker is resolved.
type BlockerError struct {
	// Reason describes what blocked the step.
	Reason string
	// Options are the allowed answers. Empty means free-form.
	Options []string
}

func (e *BlockerError) Error() string {
	return fmt.Sprintf("step blocked: %s", e.Reason)
}

// StepExecutor runs a single pipeline step. Implementations return a
// *BlockerError to suspend on a human decision; any other error marks the
// step failed.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, plan *workflow.Plan, step *workflow.Step) (StepResult, error)
}

// RecorderExecutor is the default executor. It performs no work itself: it
// records the dispatched task so the surrounding tooling (or a human
// operator) carries it out, which is the normal mode for an assistant that
// drives work through prompts rather than doing it.
type RecorderExecutor struct {
	logger *slog.Logger
}

// NewRecorderExecutor creates a recorder executor.
func NewRecorderExecutor(logger *slog.Logger) *RecorderExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecorderExecutor{logger: logger}
}

// ExecuteStep records the dispatch and reports success.
func (e *RecorderExecutor) ExecuteStep(ctx context.Context, plan *workflow.Plan, step *workflow.Step) (StepResult, error) {
	e.logger.Info("step dispatched",
		"workspace", plan.Workspace,
		"step", step.Index,
		"agent", step.AgentID,
		"stage", step.Stage,
	)
	return StepResult{
		Output: fmt.Sprintf("dispatched to %s: %s", step.AgentID, step.Task),
	}, nil
}
