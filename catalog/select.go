package catalog

import (
	"fmt"
	"sort"

	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/workflow"
)

// specialistBudget returns the maximum number of specialists a pipeline may
// carry for a complexity band. A negative budget means unbounded.
func specialistBudget(c classify.Complexity) int {
	switch c {
	case classify.ComplexityTrivial:
		return 0
	case classify.ComplexitySimple:
		return 2
	case classify.ComplexityModerate:
		return 4
	case classify.ComplexityComplex:
		return 10
	default:
		return -1
	}
}

// stagesFor returns the stages a task type exercises. Every pipeline ends in
// the git stage; documentation and bug-fix work skips the stages that would
// add no value for it.
func stagesFor(t classify.TaskType) map[workflow.Stage]bool {
	switch t {
	case classify.TaskDocumentation:
		return map[workflow.Stage]bool{
			workflow.StageImplementation: true,
			workflow.StageGit:            true,
		}
	case classify.TaskBugFix, classify.TaskTesting:
		return map[workflow.Stage]bool{
			workflow.StageImplementation: true,
			workflow.StageQuality:        true,
			workflow.StageGit:            true,
		}
	default:
		return map[workflow.Stage]bool{
			workflow.StageDesign:         true,
			workflow.StageImplementation: true,
			workflow.StageQuality:        true,
			workflow.StageGit:            true,
		}
	}
}

// Select builds the pipeline for a task. The result is fully determined by
// its inputs: the same profile, classification, and description always
// produce an identical pipeline.
func (c *Catalog) Select(profile *detect.Profile, cls classify.Classification, description string) workflow.Pipeline {
	stages := stagesFor(cls.Type)

	var core, specialists []Descriptor
	for _, d := range c.descriptors {
		if !stages[d.Stage] || !d.applies(profile) {
			continue
		}
		if d.Category == CategoryCore {
			core = append(core, d)
		} else {
			specialists = append(specialists, d)
		}
	}

	// Trim specialists to the complexity budget. Priority then ID decides
	// who stays, so trimming is as deterministic as selection.
	sortDescriptors(specialists)
	if budget := specialistBudget(cls.Complexity); budget >= 0 && len(specialists) > budget {
		specialists = specialists[:budget]
	}

	selected := append(core, specialists...)
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.Stage.Order() != b.Stage.Order() {
			return a.Stage.Order() < b.Stage.Order()
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	pipeline := make(workflow.Pipeline, 0, len(selected))
	for i, d := range selected {
		pipeline = append(pipeline, workflow.Step{
			Index:          i,
			AgentID:        d.ID,
			Stage:          d.Stage,
			Task:           fmt.Sprintf(d.TaskTemplate, description),
			ExpectedOutput: d.ExpectedOutput,
			Status:         workflow.StepPending,
		})
	}
	return pipeline
}

// sortDescriptors orders descriptors by priority then ID.
func sortDescriptors(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Priority != ds[j].Priority {
			return ds[i].Priority < ds[j].Priority
		}
		return ds[i].ID < ds[j].ID
	})
}
