// Package workflow defines the plan aggregate and the state machine types
// that drive a task from planning through execution. The plan is the sole
// source of truth once execution begins; the original free-text request is
// never re-consulted.
package workflow

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the top-level workflow phase. There is no idle phase distinct
// from "no active plan".
type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseExecution Phase = "execution"
)

// IsValid returns true if the phase is a known phase.
func (p Phase) IsValid() bool {
	return p == PhasePlanning || p == PhaseExecution
}

// CanTransitionTo returns true if the transition is allowed. Planning moves
// to execution on approval; execution moves back to planning only through a
// plan-change request.
func (p Phase) CanTransitionTo(target Phase) bool {
	switch p {
	case PhasePlanning:
		return target == PhaseExecution
	case PhaseExecution:
		return target == PhasePlanning
	}
	return false
}

// PendingApproval names the human decision the workflow is suspended on.
type PendingApproval string

const (
	ApprovalNone    PendingApproval = "none"
	ApprovalPlan    PendingApproval = "plan_approval"
	ApprovalCommit  PendingApproval = "commit_approval"
	ApprovalBlocker PendingApproval = "blocker_decision"
)

// IsValid returns true if the value is a known pending approval.
func (a PendingApproval) IsValid() bool {
	switch a {
	case ApprovalNone, ApprovalPlan, ApprovalCommit, ApprovalBlocker:
		return true
	}
	return false
}

// Stage partitions pipeline steps. Steps always execute in stage order.
type Stage string

const (
	StageDesign         Stage = "design"
	StageImplementation Stage = "implementation"
	StageQuality        Stage = "quality"
	StageGit            Stage = "git"
)

// Stages lists all stages in execution order.
var Stages = []Stage{StageDesign, StageImplementation, StageQuality, StageGit}

// IsValid returns true if the stage is known.
func (s Stage) IsValid() bool {
	switch s {
	case StageDesign, StageImplementation, StageQuality, StageGit:
		return true
	}
	return false
}

// Order returns the execution position of the stage, Design being 0.
// Unknown stages sort last.
func (s Stage) Order() int {
	for i, known := range Stages {
		if s == known {
			return i
		}
	}
	return len(Stages)
}

// StepStatus is the lifecycle state of a single pipeline step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepBlocked   StepStatus = "blocked"
)

// IsValid returns true if the status is known.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepRunning, StepCompleted, StepFailed, StepBlocked:
		return true
	}
	return false
}

// IsTerminal returns true when the step can make no further progress.
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted
}

// CanTransitionTo returns true if the status transition is allowed.
// Blocked and failed steps may re-run after a human decision.
func (s StepStatus) CanTransitionTo(target StepStatus) bool {
	switch s {
	case StepPending:
		return target == StepRunning
	case StepRunning:
		return target == StepCompleted || target == StepFailed || target == StepBlocked
	case StepFailed, StepBlocked:
		return target == StepRunning || target == StepPending
	case StepCompleted:
		return false
	}
	return false
}

// Step is one capability invocation in a pipeline.
type Step struct {
	Index          int        `json:"index"`
	AgentID        string     `json:"agent_id"`
	Stage          Stage      `json:"stage"`
	Task           string     `json:"task"`
	ExpectedOutput string     `json:"expected_output"`
	Status         StepStatus `json:"status"`
	// Notes records blocker decisions and approach changes applied to the
	// step, in order.
	Notes []string `json:"notes,omitempty"`
}

// Pipeline is the ordered sequence of steps of a plan.
type Pipeline []Step

// StepsInStage returns the steps belonging to one stage, in order.
func (p Pipeline) StepsInStage(stage Stage) []Step {
	var out []Step
	for _, s := range p {
		if s.Stage == stage {
			out = append(out, s)
		}
	}
	return out
}

// Completed returns the number of completed steps.
func (p Pipeline) Completed() int {
	n := 0
	for _, s := range p {
		if s.Status == StepCompleted {
			n++
		}
	}
	return n
}

// WorkflowState is the engine-owned position within the workflow.
type WorkflowState struct {
	Phase           Phase           `json:"phase"`
	CurrentStep     int             `json:"current_step"`
	PendingApproval PendingApproval `json:"pending_approval"`
}

// ApprovalRecord captures the explicit human approvals granted to a plan.
type ApprovalRecord struct {
	PlanApprovedAt    *time.Time `json:"plan_approved_at,omitempty"`
	PlanApprovalInput string     `json:"plan_approval_input,omitempty"`

	CommitApprovedAt    *time.Time `json:"commit_approved_at,omitempty"`
	CommitApprovalInput string     `json:"commit_approval_input,omitempty"`
}

// LogEntry is one event in the plan's append-only audit log.
type LogEntry struct {
	At     time.Time `json:"at"`
	Event  string    `json:"event"`
	Detail string    `json:"detail,omitempty"`
}

// ValidationError describes a single blocking validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult is the outcome of validating a drafted plan. Blocking
// errors gate the planning to execution transition; warnings do not.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Sentinel errors for plan lifecycle operations.
var (
	// ErrPlanChangeConflict signals a change request that touches steps the
	// pipeline has already completed or passed.
	ErrPlanChangeConflict = errors.New("plan change conflicts with completed steps")
	// ErrInvalidTransition signals a phase or status transition the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNoCurrentStep signals that the step index points past the end of
	// the pipeline.
	ErrNoCurrentStep = errors.New("no current step")
)
