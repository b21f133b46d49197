// Package engine orchestrates the plan lifecycle: drafting, approval gates,
// step execution, blockers, mid-execution changes, and finalization. The
// engine is the single writer of workflow state; everything it decides is
// derived from the persisted plan, never from conversational context.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maestrohq/maestro/catalog"
	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/store"
	"github.com/maestrohq/maestro/workflow"
)

// Sentinel errors for engine operations.
var (
	// ErrAwaitingApproval is returned when an operation needs a human
	// decision first.
	ErrAwaitingApproval = errors.New("workflow is awaiting a human decision")
	// ErrNoPendingApproval is returned when an approval is submitted but
	// nothing is suspended on one.
	ErrNoPendingApproval = errors.New("no approval is pending")
	// ErrQuestionsPending is returned when plan approval is submitted while
	// clarifying questions are still unanswered.
	ErrQuestionsPending = errors.New("clarifying questions are unanswered")
	// ErrNotBlocked is returned when a blocker resolution arrives without a
	// pending blocker.
	ErrNotBlocked = errors.New("no blocker decision is pending")
	// ErrStepsRemaining is returned when finalize is requested before the
	// pipeline has run to completion.
	ErrStepsRemaining = errors.New("pipeline steps remain")
	// ErrNotExecuting is returned when a step is requested outside the
	// execution phase.
	ErrNotExecuting = errors.New("plan is not in the execution phase")
)

// Options configures an Engine.
type Options struct {
	Plans      store.PlanStore
	Questions  store.QuestionStore
	Detector   *detect.Detector
	Classifier *classify.Classifier
	Catalog    *catalog.Catalog
	Vocabulary *workflow.Vocabulary
	// Executor runs pipeline steps. Defaults to the recorder executor.
	Executor StepExecutor
	// ProfilePath, when set, names a cached stack profile. A cache whose
	// root matches the workspace root is reused instead of rescanning.
	ProfilePath string
	// Metrics is optional; nil disables counting.
	Metrics *Metrics
	Logger  *slog.Logger
}

// Engine drives workspaces through the workflow. All operations serialize on
// an internal mutex: one writer, no races on plan state.
type Engine struct {
	mu sync.Mutex

	plans       store.PlanStore
	questions   store.QuestionStore
	detector    *detect.Detector
	classifier  *classify.Classifier
	catalog     *catalog.Catalog
	validator   *workflow.Validator
	vocab       *workflow.Vocabulary
	executor    StepExecutor
	profilePath string
	metrics     *Metrics
	logger      *slog.Logger
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Plans == nil:
		return nil, fmt.Errorf("engine: plan store is required")
	case opts.Questions == nil:
		return nil, fmt.Errorf("engine: question store is required")
	case opts.Detector == nil:
		return nil, fmt.Errorf("engine: detector is required")
	case opts.Classifier == nil:
		return nil, fmt.Errorf("engine: classifier is required")
	case opts.Catalog == nil:
		return nil, fmt.Errorf("engine: catalog is required")
	case opts.Vocabulary == nil:
		return nil, fmt.Errorf("engine: approval vocabulary is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := opts.Executor
	if executor == nil {
		executor = NewRecorderExecutor(logger)
	}

	cat := opts.Catalog
	return &Engine{
		plans:       opts.Plans,
		questions:   opts.Questions,
		detector:    opts.Detector,
		classifier:  opts.Classifier,
		catalog:     cat,
		validator:   workflow.NewValidator(cat.Has),
		vocab:       opts.Vocabulary,
		executor:    executor,
		profilePath: opts.ProfilePath,
		metrics:     opts.Metrics,
		logger:      logger,
	}, nil
}

// Begin drafts a plan for a new task. The drafted plan is persisted in the
// planning phase, suspended on plan approval, so the approval can arrive
// from a later invocation or another process over the same store. Rejecting
// it deletes it. A workspace with an active plan refuses a second task.
func (e *Engine) Begin(ctx context.Context, workspace, root, description string) (*workflow.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := workflow.ValidateWorkspace(workspace); err != nil {
		return nil, err
	}
	exists, err := e.plans.Exists(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: finish or abort it first", store.ErrPlanExists)
	}

	profile, sparse, err := e.stackProfile(root)
	if err != nil {
		return nil, fmt.Errorf("detect stack: %w", err)
	}
	if sparse {
		q := workflow.NewQuestion(workspace, workflow.QuestionClarification,
			"The stack scan found too few technologies to build a reliable profile. What stack is this project built on?")
		q.Context = fmt.Sprintf("detected %d categories in %s", profile.CategoryCount(), root)
		if err := e.questions.Put(ctx, q); err != nil {
			return nil, err
		}
		e.count(func(m *Metrics) { m.QuestionsRaised.Inc() })
		e.logger.Warn("sparse stack profile", "workspace", workspace, "categories", profile.CategoryCount())
	}
	for _, amb := range profile.Ambiguities {
		q := workflow.NewQuestion(workspace, workflow.QuestionClarification,
			fmt.Sprintf("Multiple %s technologies were detected with equal evidence. Which one does this task target?", amb.Category))
		q.Context = fmt.Sprintf("markers: %s", strings.Join(amb.Markers, ", "))
		q.Options = amb.Technologies
		if err := e.questions.Put(ctx, q); err != nil {
			return nil, err
		}
		e.count(func(m *Metrics) { m.QuestionsRaised.Inc() })
	}

	cls, err := e.classifier.Classify(description, profile)
	if err != nil {
		return nil, fmt.Errorf("classify task: %w", err)
	}

	pipeline := e.catalog.Select(profile, cls, description)
	plan, err := workflow.NewPlan(workspace, description, profile, cls, pipeline)
	if err != nil {
		return nil, err
	}
	plan.ExpectedOutcomes = expectedOutcomes(cls, pipeline)
	plan.Validation = e.validator.ValidatePlan(plan)
	if !plan.Validation.Valid {
		return nil, fmt.Errorf("drafted plan failed validation:\n%s", plan.Validation.FormatFeedback())
	}

	if err := e.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	e.count(func(m *Metrics) { m.PlansDrafted.Inc() })
	e.logger.Info("plan drafted",
		"workspace", workspace,
		"plan_id", plan.ID,
		"type", cls.Type,
		"complexity", cls.Complexity,
		"risk", cls.Risk,
		"steps", len(pipeline),
	)
	return plan, nil
}

// stackProfile returns the workspace stack profile, preferring a cached one
// whose root matches. Scans happen once per workspace; `maestro scan` or the
// staleness watcher refresh the cache.
func (e *Engine) stackProfile(root string) (*detect.Profile, bool, error) {
	if e.profilePath != "" {
		if cached, err := detect.LoadProfile(e.profilePath); err == nil && cached.Root == root {
			e.logger.Debug("using cached stack profile", "path", e.profilePath, "detected_at", cached.DetectedAt)
			return cached, cached.CategoryCount() < e.detector.MinCategories(), nil
		}
	}
	profile, err := e.detector.Detect(root)
	if errors.Is(err, detect.ErrProfileTooSparse) {
		return profile, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return profile, false, nil
}

// SubmitApproval interprets user input at the pending approval gate. Input
// outside the approval vocabulary is DecisionOther and changes nothing.
// Plan approval is refused while clarifying questions are unanswered.
func (e *Engine) SubmitApproval(ctx context.Context, workspace, input string) (workflow.Decision, *workflow.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	decision := e.vocab.Interpret(input)

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return decision, nil, err
	}

	switch plan.State.PendingApproval {
	case workflow.ApprovalPlan:
		switch decision {
		case workflow.DecisionApprove:
			if err := e.checkClarificationsAnswered(ctx, workspace); err != nil {
				return decision, plan, err
			}
			if err := plan.ApprovePlan(input); err != nil {
				return decision, plan, err
			}
			if err := e.plans.Save(ctx, plan); err != nil {
				return decision, plan, err
			}
			e.count(func(m *Metrics) { m.PlansApproved.Inc() })
			e.logger.Info("plan approved", "workspace", workspace, "plan_id", plan.ID)
			return decision, plan, nil
		case workflow.DecisionReject:
			if plan.Approval.PlanApprovedAt == nil {
				// A never-approved plan is rejected outright: delete it and
				// its questions so nothing is left behind.
				if err := e.plans.Delete(ctx, workspace); err != nil {
					return decision, nil, err
				}
				if err := e.questions.Purge(ctx, workspace); err != nil {
					return decision, nil, err
				}
				e.count(func(m *Metrics) { m.PlansRejected.Inc() })
				e.logger.Info("plan rejected", "workspace", workspace, "plan_id", plan.ID)
				return decision, nil, nil
			}
			// Rejecting a re-approval keeps the changed plan suspended.
			plan.AppendLog("approval_rejected", input)
			if err := e.plans.Save(ctx, plan); err != nil {
				return decision, plan, err
			}
			return decision, plan, nil
		default:
			return decision, plan, nil
		}
	case workflow.ApprovalCommit:
		switch decision {
		case workflow.DecisionApprove:
			if err := plan.ApproveCommit(input); err != nil {
				return decision, plan, err
			}
			if err := e.plans.Save(ctx, plan); err != nil {
				return decision, plan, err
			}
			return decision, plan, nil
		case workflow.DecisionReject:
			plan.AppendLog("commit_rejected", input)
			if err := e.plans.Save(ctx, plan); err != nil {
				return decision, plan, err
			}
			return decision, plan, nil
		default:
			return decision, plan, nil
		}
	case workflow.ApprovalBlocker:
		return decision, plan, fmt.Errorf("%w: answer the blocker instead", ErrNotBlocked)
	default:
		return decision, plan, ErrNoPendingApproval
	}
}

// checkClarificationsAnswered guards the planning to execution transition:
// every clarifying question for the workspace must be answered first.
func (e *Engine) checkClarificationsAnswered(ctx context.Context, workspace string) error {
	pending, err := e.questions.ListPending(ctx, workspace)
	if err != nil {
		return err
	}
	open := 0
	for _, q := range pending {
		if q.Kind == workflow.QuestionClarification {
			open++
		}
	}
	if open > 0 {
		return fmt.Errorf("%w: %d for workspace %s", ErrQuestionsPending, open, workspace)
	}
	return nil
}

// ExecuteNext runs the current pipeline step. The stored step index only
// advances after the step completes and the advance is persisted, so a crash
// mid-step re-runs that step instead of skipping it.
func (e *Engine) ExecuteNext(ctx context.Context, workspace string) (*workflow.Step, StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return nil, StepResult{}, err
	}
	if plan.State.Phase != workflow.PhaseExecution {
		return nil, StepResult{}, fmt.Errorf("%w: phase is %s", ErrNotExecuting, plan.State.Phase)
	}
	if plan.State.PendingApproval != workflow.ApprovalNone {
		return nil, StepResult{}, fmt.Errorf("%w: %s", ErrAwaitingApproval, plan.State.PendingApproval)
	}

	step, err := plan.CurrentStep()
	if err != nil {
		return nil, StepResult{}, err
	}
	if !step.Status.CanTransitionTo(workflow.StepRunning) {
		return step, StepResult{}, fmt.Errorf("%w: step %d is %s", workflow.ErrInvalidTransition, step.Index, step.Status)
	}
	step.Status = workflow.StepRunning

	result, execErr := e.executor.ExecuteStep(ctx, plan, step)

	var blocker *BlockerError
	if errors.As(execErr, &blocker) {
		step.Status = workflow.StepBlocked
		step.Notes = append(step.Notes, "blocked: "+blocker.Reason)
		plan.State.PendingApproval = workflow.ApprovalBlocker

		q := workflow.NewQuestion(workspace, workflow.QuestionBlocker, blocker.Reason)
		q.Options = blocker.Options
		q.StepIndex = step.Index
		if err := e.questions.Put(ctx, q); err != nil {
			return step, result, err
		}
		plan.AppendLog("step_blocked", fmt.Sprintf("step %d: %s", step.Index, blocker.Reason))
		if err := e.plans.Save(ctx, plan); err != nil {
			return step, result, err
		}
		e.count(func(m *Metrics) { m.BlockersRaised.Inc() })
		e.logger.Warn("step blocked", "workspace", workspace, "step", step.Index, "reason", blocker.Reason)
		return step, result, execErr
	}
	if execErr != nil {
		step.Status = workflow.StepFailed
		plan.AppendLog("step_failed", fmt.Sprintf("step %d: %v", step.Index, execErr))
		if err := e.plans.Save(ctx, plan); err != nil {
			return step, result, err
		}
		e.count(func(m *Metrics) { m.StepsFailed.Inc() })
		return step, result, fmt.Errorf("step %d (%s) failed: %w", step.Index, step.AgentID, execErr)
	}

	step.Status = workflow.StepCompleted
	if result.Output != "" {
		step.Notes = append(step.Notes, result.Output)
	}
	step.Notes = append(step.Notes, result.Notes...)
	plan.State.CurrentStep++
	plan.AppendLog("step_completed", fmt.Sprintf("step %d (%s)", step.Index, step.AgentID))
	if plan.AllStepsCompleted() {
		plan.State.PendingApproval = workflow.ApprovalCommit
		plan.AppendLog("awaiting_commit_approval", "")
	}
	if err := e.plans.Save(ctx, plan); err != nil {
		return step, result, err
	}
	e.count(func(m *Metrics) { m.StepsCompleted.Inc() })
	e.logger.Info("step completed", "workspace", workspace, "step", step.Index, "agent", step.AgentID)
	return step, result, nil
}

// ResolveBlocker records a blocker decision and readies the blocked step for
// a re-run. The answer must be one of the blocker's enumerated options.
func (e *Engine) ResolveBlocker(ctx context.Context, workspace, answer string) (*workflow.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if plan.State.PendingApproval != workflow.ApprovalBlocker {
		return nil, ErrNotBlocked
	}

	step, err := plan.CurrentStep()
	if err != nil {
		return nil, err
	}

	q, err := e.pendingBlocker(ctx, workspace, step.Index)
	if err != nil {
		return nil, err
	}
	if err := q.Resolve(answer); err != nil {
		return nil, err
	}
	if err := e.questions.Put(ctx, q); err != nil {
		return nil, err
	}

	step.Notes = append(step.Notes, "decision: "+answer)
	step.Status = workflow.StepPending
	plan.State.PendingApproval = workflow.ApprovalNone
	plan.AppendLog("blocker_resolved", answer)
	if err := e.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	e.logger.Info("blocker resolved", "workspace", workspace, "step", step.Index, "answer", answer)
	return plan, nil
}

func (e *Engine) pendingBlocker(ctx context.Context, workspace string, stepIndex int) (*workflow.Question, error) {
	pending, err := e.questions.ListPending(ctx, workspace)
	if err != nil {
		return nil, err
	}
	for _, q := range pending {
		if q.Kind == workflow.QuestionBlocker && q.StepIndex == stepIndex {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: no pending blocker question for step %d", store.ErrQuestionNotFound, stepIndex)
}

// Answer resolves a clarification question by ID.
func (e *Engine) Answer(ctx context.Context, workspace, questionID, answer string) (*workflow.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.questions.Get(ctx, workspace, questionID)
	if err != nil {
		return nil, err
	}
	if err := q.Resolve(answer); err != nil {
		return nil, err
	}
	if err := e.questions.Put(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// RequestChange applies a mid-flight change to the plan. Completed and
// passed steps are untouchable; a changed plan goes back through plan
// approval before execution resumes, holding its position.
func (e *Engine) RequestChange(ctx context.Context, workspace string, req workflow.ChangeRequest) (*workflow.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if err := plan.ApplyChange(req); err != nil {
		return nil, err
	}
	plan.Validation = e.validator.ValidatePlan(plan)
	if plan.State.Phase == workflow.PhaseExecution {
		plan.State.Phase = workflow.PhasePlanning
		plan.State.PendingApproval = workflow.ApprovalPlan
		plan.AppendLog("reapproval_required", req.Reason)
	}
	if err := e.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	e.count(func(m *Metrics) { m.ChangesApplied.Inc() })
	e.logger.Info("plan changed", "workspace", workspace, "reason", req.Reason)
	return plan, nil
}

// Finalize closes out a fully executed, commit-approved plan. The workspace
// is free for a new task afterwards.
func (e *Engine) Finalize(ctx context.Context, workspace string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return err
	}
	if !plan.AllStepsCompleted() {
		return fmt.Errorf("%w: %d of %d completed", ErrStepsRemaining, plan.Pipeline.Completed(), len(plan.Pipeline))
	}
	if plan.Approval.CommitApprovedAt == nil {
		return fmt.Errorf("%w: commit approval", ErrAwaitingApproval)
	}

	if err := e.plans.Delete(ctx, workspace); err != nil {
		return err
	}
	if err := e.questions.Purge(ctx, workspace); err != nil {
		return err
	}
	e.count(func(m *Metrics) { m.PlansCompleted.Inc() })
	e.logger.Info("plan finalized", "workspace", workspace, "plan_id", plan.ID)
	return nil
}

// Abort discards the workspace's plan and its questions, approved or not.
func (e *Engine) Abort(ctx context.Context, workspace string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.plans.Delete(ctx, workspace); err != nil {
		return err
	}
	if err := e.questions.Purge(ctx, workspace); err != nil {
		return err
	}
	e.count(func(m *Metrics) { m.PlansAborted.Inc() })
	e.logger.Info("plan aborted", "workspace", workspace)
	return nil
}

// Resume reloads the active plan after a restart. A step persisted as
// running was interrupted mid-flight and is reset to pending so ExecuteNext
// re-runs it.
func (e *Engine) Resume(ctx context.Context, workspace string) (*workflow.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if step, err := plan.CurrentStep(); err == nil && step.Status == workflow.StepRunning {
		step.Status = workflow.StepPending
		plan.AppendLog("step_reset", fmt.Sprintf("step %d interrupted by restart", step.Index))
		if err := e.plans.Save(ctx, plan); err != nil {
			return nil, err
		}
	}
	e.logger.Info("plan resumed",
		"workspace", workspace,
		"plan_id", plan.ID,
		"phase", plan.State.Phase,
		"step", plan.State.CurrentStep,
	)
	return plan, nil
}

// Status returns the workspace's plan. The second return is true while the
// plan is still a draft awaiting its first approval.
func (e *Engine) Status(ctx context.Context, workspace string) (*workflow.Plan, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plans.Load(ctx, workspace)
	if err != nil {
		return nil, false, err
	}
	return plan, plan.Approval.PlanApprovedAt == nil, nil
}

// PendingQuestions returns the workspace's unanswered questions.
func (e *Engine) PendingQuestions(ctx context.Context, workspace string) ([]*workflow.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions.ListPending(ctx, workspace)
}

// count applies a metrics update when metrics are enabled.
func (e *Engine) count(fn func(*Metrics)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}

// expectedOutcomes derives the verifiable outcomes of a plan from its
// classification and the stages it carries.
func expectedOutcomes(cls classify.Classification, pipeline workflow.Pipeline) []string {
	outcomes := []string{
		fmt.Sprintf("%s task implemented as described", strings.ReplaceAll(string(cls.Type), "_", " ")),
	}
	if len(pipeline.StepsInStage(workflow.StageQuality)) > 0 {
		outcomes = append(outcomes, "tests cover the change and pass")
	}
	if len(pipeline.StepsInStage(workflow.StageGit)) > 0 {
		outcomes = append(outcomes, "changes committed with a descriptive message")
	}
	if cls.Risk == classify.RiskHigh || cls.Risk == classify.RiskCritical {
		outcomes = append(outcomes, fmt.Sprintf("%s-risk areas reviewed before commit", cls.Risk))
	}
	return outcomes
}
