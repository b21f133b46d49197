package workflow

import (
	"fmt"
	"strings"

	"github.com/maestrohq/maestro/detect"
)

// RenderDocument renders the plan as its markdown document form. The
// section set is fixed; consumers and the validator rely on these headings.
func RenderDocument(p *Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Plan: %s\n\n", p.TaskDescription)
	fmt.Fprintf(&b, "- ID: `%s`\n", p.ID)
	fmt.Fprintf(&b, "- Workspace: `%s`\n", p.Workspace)
	fmt.Fprintf(&b, "- Phase: %s\n", p.State.Phase)
	fmt.Fprintf(&b, "- Step: %d of %d\n\n", p.State.CurrentStep, len(p.Pipeline))

	renderContext(&b, p)
	renderDocRefs(&b, p)
	renderSelectedAgents(&b, p)
	renderImplementationPlan(&b, p)
	renderValidationResults(&b, p)
	renderExpectedOutcomes(&b, p)
	renderApprovalRecord(&b, p)

	return b.String()
}

func renderContext(b *strings.Builder, p *Plan) {
	b.WriteString("## Context\n\n")
	fmt.Fprintf(b, "Task type: **%s** · Complexity: **%s** · Risk: **%s**\n\n",
		p.Classification.Type, p.Classification.Complexity, p.Classification.Risk)
	fmt.Fprintf(b, "Estimated %d LOC across %d file(s)",
		p.Classification.Estimate.LOC, p.Classification.Estimate.Files)
	if p.Classification.Estimate.NewPattern {
		b.WriteString(", introduces a new architectural pattern")
	}
	b.WriteString(".\n\n")

	if p.Profile != nil && p.Profile.CategoryCount() > 0 {
		b.WriteString("Detected stack:\n\n")
		for _, category := range detect.Categories {
			if d, ok := p.Profile.Get(category); ok {
				fmt.Fprintf(b, "- %s: %s (`%s`, %s confidence)\n", category, d.Technology, d.Marker, d.Confidence)
			}
		}
		b.WriteString("\n")
	}
	for _, amb := range profileAmbiguities(p) {
		fmt.Fprintf(b, "> Ambiguous %s: %s — needs clarification\n\n",
			amb.Category, strings.Join(amb.Technologies, " vs "))
	}
}

func renderDocRefs(b *strings.Builder, p *Plan) {
	b.WriteString("## Documentation References\n\n")
	if len(p.DocRefs) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	for _, ref := range p.DocRefs {
		fmt.Fprintf(b, "- %s\n", ref)
	}
	b.WriteString("\n")
}

func renderSelectedAgents(b *strings.Builder, p *Plan) {
	b.WriteString("## Selected Agents\n\n")
	seen := map[string]bool{}
	for _, stage := range Stages {
		steps := p.Pipeline.StepsInStage(stage)
		if len(steps) == 0 {
			continue
		}
		fmt.Fprintf(b, "**%s**\n\n", titleCase(string(stage)))
		for _, step := range steps {
			if seen[step.AgentID] {
				continue
			}
			seen[step.AgentID] = true
			fmt.Fprintf(b, "- `%s`\n", step.AgentID)
		}
		b.WriteString("\n")
	}
}

func renderImplementationPlan(b *strings.Builder, p *Plan) {
	b.WriteString("## Implementation Plan\n\n")
	for _, step := range p.Pipeline {
		marker := " "
		switch step.Status {
		case StepCompleted:
			marker = "x"
		case StepFailed:
			marker = "!"
		case StepBlocked:
			marker = "?"
		}
		fmt.Fprintf(b, "- [%s] %d. (%s/`%s`) %s\n", marker, step.Index, step.Stage, step.AgentID, step.Task)
		if step.ExpectedOutput != "" {
			fmt.Fprintf(b, "     Expected: %s\n", step.ExpectedOutput)
		}
		for _, note := range step.Notes {
			fmt.Fprintf(b, "     Note: %s\n", note)
		}
	}
	b.WriteString("\n")
}

func renderValidationResults(b *strings.Builder, p *Plan) {
	b.WriteString("## Validation Results\n\n")
	if p.Validation == nil {
		b.WriteString("_Not yet validated._\n\n")
		return
	}
	if p.Validation.Valid {
		b.WriteString("Valid.\n")
	} else {
		for _, e := range p.Validation.Errors {
			fmt.Fprintf(b, "- ERROR %s: %s\n", e.Field, e.Message)
		}
	}
	for _, w := range p.Validation.Warnings {
		fmt.Fprintf(b, "- WARN %s\n", w)
	}
	b.WriteString("\n")
}

func renderExpectedOutcomes(b *strings.Builder, p *Plan) {
	b.WriteString("## Expected Outcomes\n\n")
	if len(p.ExpectedOutcomes) == 0 {
		b.WriteString("_None recorded._\n\n")
		return
	}
	for _, o := range p.ExpectedOutcomes {
		fmt.Fprintf(b, "- %s\n", o)
	}
	b.WriteString("\n")
}

func renderApprovalRecord(b *strings.Builder, p *Plan) {
	b.WriteString("## Approval Record\n\n")
	if p.Approval.PlanApprovedAt != nil {
		fmt.Fprintf(b, "- Plan approved at %s (input: %q)\n",
			p.Approval.PlanApprovedAt.Format("2006-01-02 15:04:05 MST"), p.Approval.PlanApprovalInput)
	} else {
		b.WriteString("- Plan: awaiting approval\n")
	}
	if p.Approval.CommitApprovedAt != nil {
		fmt.Fprintf(b, "- Commit approved at %s (input: %q)\n",
			p.Approval.CommitApprovedAt.Format("2006-01-02 15:04:05 MST"), p.Approval.CommitApprovalInput)
	}
	if p.State.PendingApproval != ApprovalNone && p.State.PendingApproval != "" {
		fmt.Fprintf(b, "- Pending: %s\n", p.State.PendingApproval)
	}
	b.WriteString("\n")
}

// titleCase upper-cases the first byte of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

func profileAmbiguities(p *Plan) []detect.Ambiguity {
	if p.Profile == nil {
		return nil
	}
	return p.Profile.Ambiguities
}
