package classify

import (
	"strings"

	"github.com/maestrohq/maestro/detect"
)

// Estimator produces the size signals a complexity band is computed from.
// The interface is the substitution point for an external reasoning
// component; the classifier only depends on the estimate, never on how it
// was produced.
type Estimator interface {
	Estimate(description string, profile *detect.Profile) (SizeEstimate, error)
}

// HeuristicEstimator is the built-in deterministic estimator. It derives
// size signals from wording alone: scope words widen the estimate,
// enumerations add files, and trivially-scoped wording collapses it.
type HeuristicEstimator struct{}

// scopeWords widen an estimate: each occurrence implies work across
// multiple components.
var scopeWords = []string{
	"all", "every", "across", "entire", "whole", "system",
	"rewrite", "redesign", "overhaul", "migrate", "migration",
}

// trivialWords collapse an estimate to a one-file touch-up.
var trivialWords = []string{
	"typo", "spelling", "whitespace", "comment", "wording", "label",
}

// patternWords flag a new architectural pattern.
var patternWords = []string{
	"architecture", "architectural", "redesign", "from scratch",
	"greenfield", "microservice", "event-driven", "event sourcing",
	"new pattern",
}

// Estimate implements Estimator. Identical descriptions always produce
// identical estimates.
func (e *HeuristicEstimator) Estimate(description string, profile *detect.Profile) (SizeEstimate, error) {
	normalized := strings.ToLower(description)

	estimate := SizeEstimate{LOC: 40, Files: 2}

	for _, w := range trivialWords {
		if containsWord(normalized, w) {
			return SizeEstimate{LOC: 5, Files: 1}, nil
		}
	}

	for _, w := range scopeWords {
		if containsWord(normalized, w) {
			estimate.LOC += 150
			estimate.Files += 4
		}
	}

	// Enumerations ("X, Y and Z") add a file per listed item.
	conjunctions := strings.Count(normalized, " and ") + strings.Count(normalized, ",")
	estimate.LOC += 25 * conjunctions
	estimate.Files += conjunctions

	for _, w := range patternWords {
		if strings.Contains(normalized, w) {
			estimate.NewPattern = true
			break
		}
	}

	return estimate, nil
}
