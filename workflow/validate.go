package workflow

import (
	"fmt"
	"strings"
)

// Validator checks a drafted plan against configuration rules. Blocking
// violations gate the planning to execution transition; warnings surface in
// the plan document but do not block.
type Validator struct {
	// KnownAgent reports whether an agent id exists in the catalog. A nil
	// predicate skips agent checks.
	KnownAgent func(id string) bool
}

// NewValidator constructs a Validator.
func NewValidator(knownAgent func(id string) bool) *Validator {
	return &Validator{KnownAgent: knownAgent}
}

// ValidatePlan validates a drafted plan.
func (v *Validator) ValidatePlan(p *Plan) *ValidationResult {
	result := &ValidationResult{Valid: true}

	fail := func(field, format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(p.TaskDescription) == "" {
		fail("task_description", "task description is empty")
	}
	if len(p.Pipeline) == 0 {
		fail("pipeline", "pipeline has no steps")
	}

	lastStage := -1
	for i, step := range p.Pipeline {
		if step.Index != i {
			fail("pipeline", "step %d carries index %d, indices must be contiguous from 0", i, step.Index)
		}
		if strings.TrimSpace(step.Task) == "" {
			fail("pipeline", "step %d has no task", i)
		}
		if !step.Stage.IsValid() {
			fail("pipeline", "step %d has unknown stage %q", i, step.Stage)
		} else {
			if step.Stage.Order() < lastStage {
				fail("pipeline", "step %d is out of stage order", i)
			}
			lastStage = step.Stage.Order()
		}
		if step.AgentID == "" {
			fail("pipeline", "step %d has no agent", i)
		} else if v.KnownAgent != nil && !v.KnownAgent(step.AgentID) {
			fail("pipeline", "step %d references unknown agent %q", i, step.AgentID)
		}
	}

	if len(p.ExpectedOutcomes) == 0 {
		result.Warnings = append(result.Warnings, "plan lists no expected outcomes")
	}
	if p.Profile == nil || p.Profile.CategoryCount() == 0 {
		result.Warnings = append(result.Warnings, "plan carries no detected stack profile")
	} else if len(p.Profile.Ambiguities) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d unresolved detection ambiguities", len(p.Profile.Ambiguities)))
	}

	return result
}

// FormatFeedback renders a validation result as human-readable feedback.
func (r *ValidationResult) FormatFeedback() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "Plan is valid."
	}

	var b strings.Builder
	if !r.Valid {
		b.WriteString("Plan validation failed:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	return b.String()
}
