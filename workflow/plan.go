package workflow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/detect"
)

// Sentinel errors for plan operations.
var (
	ErrDescriptionRequired = errors.New("task description is required")
	ErrInvalidWorkspace    = errors.New("invalid workspace id: must be lowercase alphanumeric with hyphens, no path separators")
)

// workspacePattern validates workspace ids: lowercase alphanumeric with
// hyphens, 1-50 chars.
var workspacePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,48}[a-z0-9])?$`)

// ValidateWorkspace checks that a workspace id is valid and safe for use in
// file paths and KV keys.
func ValidateWorkspace(workspace string) error {
	if workspace == "" {
		return fmt.Errorf("%w: empty", ErrInvalidWorkspace)
	}
	// Prevent path traversal
	if strings.Contains(workspace, "..") || strings.Contains(workspace, "/") || strings.Contains(workspace, "\\") {
		return ErrInvalidWorkspace
	}
	if !workspacePattern.MatchString(workspace) {
		return ErrInvalidWorkspace
	}
	return nil
}

// Plan is the aggregate root: the persisted record of an approved task and
// its full execution state. At most one plan is active per workspace.
type Plan struct {
	ID               string                  `json:"id"`
	Workspace        string                  `json:"workspace"`
	TaskDescription  string                  `json:"task_description"`
	Profile          *detect.Profile         `json:"profile,omitempty"`
	Classification   classify.Classification `json:"classification"`
	Pipeline         Pipeline                `json:"pipeline"`
	Validation       *ValidationResult       `json:"validation,omitempty"`
	ExpectedOutcomes []string                `json:"expected_outcomes,omitempty"`
	DocRefs          []string                `json:"doc_refs,omitempty"`
	Approval         ApprovalRecord          `json:"approval"`
	State            WorkflowState           `json:"state"`
	Log              []LogEntry              `json:"log,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// NewPlan drafts a plan in the planning phase, suspended on plan approval.
func NewPlan(workspace, description string, profile *detect.Profile, classification classify.Classification, pipeline Pipeline) (*Plan, error) {
	if err := ValidateWorkspace(workspace); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}

	now := time.Now().UTC()
	plan := &Plan{
		ID:              uuid.New().String(),
		Workspace:       workspace,
		TaskDescription: description,
		Profile:         profile,
		Classification:  classification,
		Pipeline:        pipeline,
		State: WorkflowState{
			Phase:           PhasePlanning,
			CurrentStep:     0,
			PendingApproval: ApprovalPlan,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	plan.AppendLog("plan_drafted", fmt.Sprintf("%d steps", len(pipeline)))
	return plan, nil
}

// AppendLog adds an entry to the plan's audit log and bumps UpdatedAt.
func (p *Plan) AppendLog(event, detail string) {
	now := time.Now().UTC()
	p.Log = append(p.Log, LogEntry{At: now, Event: event, Detail: detail})
	p.UpdatedAt = now
}

// CurrentStep returns the step at the current index.
func (p *Plan) CurrentStep() (*Step, error) {
	idx := p.State.CurrentStep
	if idx < 0 || idx >= len(p.Pipeline) {
		return nil, fmt.Errorf("%w: index %d of %d steps", ErrNoCurrentStep, idx, len(p.Pipeline))
	}
	return &p.Pipeline[idx], nil
}

// AllStepsCompleted returns true when every pipeline step has completed.
func (p *Plan) AllStepsCompleted() bool {
	if len(p.Pipeline) == 0 {
		return false
	}
	return p.Pipeline.Completed() == len(p.Pipeline)
}

// ApprovePlan records the plan approval and transitions to execution.
func (p *Plan) ApprovePlan(input string) error {
	if p.State.Phase != PhasePlanning || p.State.PendingApproval != ApprovalPlan {
		return fmt.Errorf("%w: plan approval while %s/%s", ErrInvalidTransition, p.State.Phase, p.State.PendingApproval)
	}
	now := time.Now().UTC()
	p.Approval.PlanApprovedAt = &now
	p.Approval.PlanApprovalInput = input
	p.State.Phase = PhaseExecution
	p.State.PendingApproval = ApprovalNone
	p.AppendLog("plan_approved", input)
	return nil
}

// ApproveCommit records the finalize approval.
func (p *Plan) ApproveCommit(input string) error {
	if p.State.PendingApproval != ApprovalCommit {
		return fmt.Errorf("%w: commit approval while %s", ErrInvalidTransition, p.State.PendingApproval)
	}
	now := time.Now().UTC()
	p.Approval.CommitApprovedAt = &now
	p.Approval.CommitApprovalInput = input
	p.State.PendingApproval = ApprovalNone
	p.AppendLog("commit_approved", input)
	return nil
}
