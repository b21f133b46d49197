package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// StepDraft describes a step to insert through a change request. Index and
// status are assigned during renumbering.
type StepDraft struct {
	AgentID        string `json:"agent_id"`
	Stage          Stage  `json:"stage"`
	Task           string `json:"task"`
	ExpectedOutput string `json:"expected_output"`
}

// ChangeRequest mutates the remaining portion of a pipeline. Only steps at
// or after the current index may be touched; anything else is a conflict.
type ChangeRequest struct {
	// Reason is recorded in the plan log.
	Reason string `json:"reason"`
	// RemoveIndices lists step indices to remove.
	RemoveIndices []int `json:"remove_indices,omitempty"`
	// InsertAt is the index new steps are inserted before. A negative value
	// appends them at the end of the pipeline.
	InsertAt int `json:"insert_at"`
	// NewSteps are inserted at InsertAt in order.
	NewSteps []StepDraft `json:"new_steps,omitempty"`
}

// ApplyChange mutates the plan's pipeline per the request. Steps before the
// current index are never renumbered, removed, or reordered. Remaining
// steps are renumbered contiguously from the current index. The plan
// requires fresh approval after a change; setting that gate is the caller's
// responsibility.
func (p *Plan) ApplyChange(req ChangeRequest) error {
	current := p.State.CurrentStep

	remove := map[int]bool{}
	for _, idx := range req.RemoveIndices {
		if idx < current {
			return fmt.Errorf("%w: cannot remove step %d, execution is at step %d", ErrPlanChangeConflict, idx, current)
		}
		if idx >= len(p.Pipeline) {
			return fmt.Errorf("%w: step %d does not exist", ErrPlanChangeConflict, idx)
		}
		if p.Pipeline[idx].Status == StepCompleted {
			return fmt.Errorf("%w: step %d is already completed", ErrPlanChangeConflict, idx)
		}
		remove[idx] = true
	}
	if req.InsertAt >= 0 && req.InsertAt < current {
		return fmt.Errorf("%w: cannot insert at step %d, execution is at step %d", ErrPlanChangeConflict, req.InsertAt, current)
	}
	if req.InsertAt > len(p.Pipeline) {
		return fmt.Errorf("%w: insert position %d is past the end of the pipeline", ErrPlanChangeConflict, req.InsertAt)
	}
	for i, draft := range req.NewSteps {
		if draft.AgentID == "" || strings.TrimSpace(draft.Task) == "" {
			return fmt.Errorf("%w: new step %d needs an agent and a task", ErrPlanChangeConflict, i)
		}
		if !draft.Stage.IsValid() {
			return fmt.Errorf("%w: new step %d has unknown stage %q", ErrPlanChangeConflict, i, draft.Stage)
		}
	}

	// Rebuild the tail: completed prefix stays untouched.
	tail := make([]Step, 0, len(p.Pipeline)-current+len(req.NewSteps))
	inserted := false
	for idx := current; idx < len(p.Pipeline); idx++ {
		if req.InsertAt == idx {
			tail = append(tail, draftsToSteps(req.NewSteps)...)
			inserted = true
		}
		if remove[idx] {
			continue
		}
		tail = append(tail, p.Pipeline[idx])
	}
	if !inserted && len(req.NewSteps) > 0 {
		tail = append(tail, draftsToSteps(req.NewSteps)...)
	}

	rebuilt := make(Pipeline, 0, current+len(tail))
	rebuilt = append(rebuilt, p.Pipeline[:current]...)
	rebuilt = append(rebuilt, tail...)
	for i := current; i < len(rebuilt); i++ {
		rebuilt[i].Index = i
	}
	p.Pipeline = rebuilt

	detail := req.Reason
	if len(req.RemoveIndices) > 0 {
		sorted := append([]int(nil), req.RemoveIndices...)
		sort.Ints(sorted)
		detail = fmt.Sprintf("%s (removed %v, added %d)", detail, sorted, len(req.NewSteps))
	} else if len(req.NewSteps) > 0 {
		detail = fmt.Sprintf("%s (added %d)", detail, len(req.NewSteps))
	}
	p.AppendLog("plan_changed", detail)
	return nil
}

func draftsToSteps(drafts []StepDraft) []Step {
	steps := make([]Step, len(drafts))
	for i, d := range drafts {
		steps[i] = Step{
			AgentID:        d.AgentID,
			Stage:          d.Stage,
			Task:           d.Task,
			ExpectedOutput: d.ExpectedOutput,
			Status:         StepPending,
		}
	}
	return steps
}
