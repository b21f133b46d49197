// Package classify maps a free-text task description to a discrete task
// type, complexity tier, and risk level using ordered keyword rule tables.
// The thresholds that bound each complexity band are configuration, not
// code, so operators can recalibrate without touching the algorithm.
package classify

import "errors"

// TaskType is the discrete kind of work a task description asks for.
type TaskType string

const (
	TaskNewFeature    TaskType = "new_feature"
	TaskBugFix        TaskType = "bug_fix"
	TaskRefactor      TaskType = "refactor"
	TaskPerformance   TaskType = "performance"
	TaskSecurity      TaskType = "security"
	TaskTesting       TaskType = "testing"
	TaskDocumentation TaskType = "documentation"
)

// IsValid returns true if the task type is known.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskNewFeature, TaskBugFix, TaskRefactor, TaskPerformance,
		TaskSecurity, TaskTesting, TaskDocumentation:
		return true
	}
	return false
}

// Complexity is the ordinal effort tier of a task.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityCritical Complexity = "critical"
)

// Ordinal returns the band index of the complexity, Trivial being 0.
func (c Complexity) Ordinal() int {
	switch c {
	case ComplexityTrivial:
		return 0
	case ComplexitySimple:
		return 1
	case ComplexityModerate:
		return 2
	case ComplexityComplex:
		return 3
	case ComplexityCritical:
		return 4
	}
	return -1
}

// maxComplexity returns the higher of two complexity bands.
func maxComplexity(a, b Complexity) Complexity {
	if b.Ordinal() > a.Ordinal() {
		return b
	}
	return a
}

// Risk is the blast-radius tier of a task, independent of its size.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Ordinal returns the band index of the risk, Low being 0.
func (r Risk) Ordinal() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// maxRisk returns the higher of two risk levels.
func maxRisk(a, b Risk) Risk {
	if b.Ordinal() > a.Ordinal() {
		return b
	}
	return a
}

// SizeEstimate carries the three independent effort signals a complexity
// band is computed from.
type SizeEstimate struct {
	// LOC is the estimated lines of code touched
	LOC int `json:"loc"`
	// Files is the estimated number of files touched
	Files int `json:"files"`
	// NewPattern indicates the task introduces a new architectural pattern
	NewPattern bool `json:"new_pattern"`
}

// Classification is the immutable result of classifying one task request.
type Classification struct {
	Type       TaskType     `json:"type"`
	Complexity Complexity   `json:"complexity"`
	Risk       Risk         `json:"risk"`
	Estimate   SizeEstimate `json:"estimate"`
}

// ErrUnclassifiable signals that no keyword rule matched and the
// description does not imply creation. The caller must ask the user
// instead of guessing a task type.
var ErrUnclassifiable = errors.New("task description could not be classified")
