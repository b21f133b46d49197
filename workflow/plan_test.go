package workflow

import (
	"errors"
	"testing"

	"github.com/maestrohq/maestro/classify"
)

// testPipeline builds a pipeline of n implementation steps preceded by one
// design step and followed by one quality step when n allows it.
func testPipeline(n int) Pipeline {
	p := make(Pipeline, n)
	for i := range p {
		stage := StageImplementation
		switch {
		case i == 0:
			stage = StageDesign
		case i == n-1 && n > 2:
			stage = StageGit
		case i == n-2 && n > 3:
			stage = StageQuality
		}
		p[i] = Step{
			Index:          i,
			AgentID:        "implementer",
			Stage:          stage,
			Task:           "do the work",
			ExpectedOutput: "working code",
			Status:         StepPending,
		}
	}
	return p
}

func testPlan(t *testing.T, steps int) *Plan {
	t.Helper()
	plan, err := NewPlan("demo", "add a widget", nil, classify.Classification{
		Type:       classify.TaskNewFeature,
		Complexity: classify.ComplexityModerate,
		Risk:       classify.RiskLow,
	}, testPipeline(steps))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	return plan
}

func TestNewPlanStartsSuspendedOnApproval(t *testing.T) {
	plan := testPlan(t, 5)

	if plan.State.Phase != PhasePlanning {
		t.Errorf("phase = %s, want planning", plan.State.Phase)
	}
	if plan.State.PendingApproval != ApprovalPlan {
		t.Errorf("pending approval = %s, want plan_approval", plan.State.PendingApproval)
	}
	if plan.State.CurrentStep != 0 {
		t.Errorf("current step = %d, want 0", plan.State.CurrentStep)
	}
	if plan.ID == "" {
		t.Error("plan must carry an id")
	}
}

func TestNewPlanRejectsEmptyDescription(t *testing.T) {
	_, err := NewPlan("demo", "   ", nil, classify.Classification{}, testPipeline(3))
	if !errors.Is(err, ErrDescriptionRequired) {
		t.Errorf("expected ErrDescriptionRequired, got %v", err)
	}
}

func TestNewPlanRejectsBadWorkspace(t *testing.T) {
	_, err := NewPlan("../evil", "add a widget", nil, classify.Classification{}, testPipeline(3))
	if !errors.Is(err, ErrInvalidWorkspace) {
		t.Errorf("expected ErrInvalidWorkspace, got %v", err)
	}
}

func TestApprovePlanTransitionsToExecution(t *testing.T) {
	plan := testPlan(t, 5)

	if err := plan.ApprovePlan("yes"); err != nil {
		t.Fatalf("ApprovePlan() error = %v", err)
	}
	if plan.State.Phase != PhaseExecution {
		t.Errorf("phase = %s, want execution", plan.State.Phase)
	}
	if plan.State.PendingApproval != ApprovalNone {
		t.Errorf("pending approval = %s, want none", plan.State.PendingApproval)
	}
	if plan.Approval.PlanApprovedAt == nil {
		t.Error("approval timestamp missing")
	}
	if plan.Approval.PlanApprovalInput != "yes" {
		t.Errorf("approval input = %q, want %q", plan.Approval.PlanApprovalInput, "yes")
	}

	// A second approval of the same gate is invalid.
	if err := plan.ApprovePlan("yes"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on double approval, got %v", err)
	}
}

func TestCurrentStep(t *testing.T) {
	plan := testPlan(t, 3)

	step, err := plan.CurrentStep()
	if err != nil {
		t.Fatalf("CurrentStep() error = %v", err)
	}
	if step.Index != 0 {
		t.Errorf("step index = %d, want 0", step.Index)
	}

	plan.State.CurrentStep = 3
	if _, err := plan.CurrentStep(); !errors.Is(err, ErrNoCurrentStep) {
		t.Errorf("expected ErrNoCurrentStep past the end, got %v", err)
	}
}

func TestAllStepsCompleted(t *testing.T) {
	plan := testPlan(t, 3)
	if plan.AllStepsCompleted() {
		t.Error("fresh plan must not read as completed")
	}
	for i := range plan.Pipeline {
		plan.Pipeline[i].Status = StepCompleted
	}
	if !plan.AllStepsCompleted() {
		t.Error("plan with all steps completed must read as completed")
	}
}

func TestApplyChangeRenumbersOnlyRemainingSteps(t *testing.T) {
	plan := testPlan(t, 10)
	plan.State.Phase = PhaseExecution
	for i := 0; i < 4; i++ {
		plan.Pipeline[i].Status = StepCompleted
	}
	plan.State.CurrentStep = 4

	before := make([]Step, 4)
	copy(before, plan.Pipeline[:4])

	err := plan.ApplyChange(ChangeRequest{
		Reason:        "drop the cache layer, add metrics",
		RemoveIndices: []int{6, 7},
		InsertAt:      -1,
		NewSteps: []StepDraft{
			{AgentID: "implementer", Stage: StageImplementation, Task: "add metrics", ExpectedOutput: "counters wired"},
		},
	})
	if err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	// Steps before the current index are byte-for-byte untouched.
	for i, s := range plan.Pipeline[:4] {
		if s.Index != before[i].Index || s.Task != before[i].Task || s.Status != before[i].Status {
			t.Errorf("completed step %d was modified: %+v", i, s)
		}
	}

	// 10 - 2 removed + 1 added = 9 steps, renumbered contiguously.
	if len(plan.Pipeline) != 9 {
		t.Fatalf("pipeline length = %d, want 9", len(plan.Pipeline))
	}
	for i, s := range plan.Pipeline {
		if s.Index != i {
			t.Errorf("step %d carries index %d after renumbering", i, s.Index)
		}
	}
	if got := plan.Pipeline[8].Task; got != "add metrics" {
		t.Errorf("appended step task = %q, want %q", got, "add metrics")
	}
	if plan.State.CurrentStep != 4 {
		t.Errorf("current step moved to %d during plan change", plan.State.CurrentStep)
	}
}

func TestApplyChangeInsertAt(t *testing.T) {
	plan := testPlan(t, 5)
	plan.State.CurrentStep = 2

	err := plan.ApplyChange(ChangeRequest{
		Reason:   "need a schema step first",
		InsertAt: 2,
		NewSteps: []StepDraft{
			{AgentID: "implementer", Stage: StageImplementation, Task: "write the schema migration", ExpectedOutput: "migration file"},
		},
	})
	if err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	if len(plan.Pipeline) != 6 {
		t.Fatalf("pipeline length = %d, want 6", len(plan.Pipeline))
	}
	if plan.Pipeline[2].Task != "write the schema migration" {
		t.Errorf("step 2 task = %q, want inserted step", plan.Pipeline[2].Task)
	}
	if plan.Pipeline[2].Status != StepPending {
		t.Errorf("inserted step status = %s, want pending", plan.Pipeline[2].Status)
	}
	for i, s := range plan.Pipeline {
		if s.Index != i {
			t.Errorf("step %d carries index %d", i, s.Index)
		}
	}
}

func TestApplyChangeConflicts(t *testing.T) {
	tests := []struct {
		name string
		req  ChangeRequest
	}{
		{
			name: "remove completed step",
			req:  ChangeRequest{Reason: "x", RemoveIndices: []int{1}, InsertAt: -1},
		},
		{
			name: "insert before current",
			req: ChangeRequest{Reason: "x", InsertAt: 2, NewSteps: []StepDraft{
				{AgentID: "implementer", Stage: StageImplementation, Task: "t"},
			}},
		},
		{
			name: "remove nonexistent step",
			req:  ChangeRequest{Reason: "x", RemoveIndices: []int{42}, InsertAt: -1},
		},
		{
			name: "new step without agent",
			req: ChangeRequest{Reason: "x", InsertAt: -1, NewSteps: []StepDraft{
				{Stage: StageImplementation, Task: "t"},
			}},
		},
		{
			name: "new step with unknown stage",
			req: ChangeRequest{Reason: "x", InsertAt: -1, NewSteps: []StepDraft{
				{AgentID: "implementer", Stage: Stage("deploy"), Task: "t"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := testPlan(t, 6)
			for i := 0; i < 3; i++ {
				plan.Pipeline[i].Status = StepCompleted
			}
			plan.State.CurrentStep = 3

			err := plan.ApplyChange(tt.req)
			if !errors.Is(err, ErrPlanChangeConflict) {
				t.Errorf("expected ErrPlanChangeConflict, got %v", err)
			}
			// Pipeline must be untouched after a rejected change.
			if len(plan.Pipeline) != 6 {
				t.Errorf("pipeline mutated by rejected change, length = %d", len(plan.Pipeline))
			}
		})
	}
}

func TestQuestionResolve(t *testing.T) {
	q := NewQuestion("demo", QuestionBlocker, "migration failed, how to proceed?")
	q.Options = []string{"retry", "skip precondition", "abort"}

	if err := q.Resolve("reboot"); err == nil {
		t.Error("answer outside the enumerated options must be rejected")
	}
	if err := q.Resolve("retry"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if q.Status != QuestionStatusAnswered {
		t.Errorf("status = %s, want answered", q.Status)
	}
	if err := q.Resolve("retry"); err == nil {
		t.Error("double resolve must fail")
	}
}
