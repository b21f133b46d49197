package classify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/maestrohq/maestro/config"
	"github.com/maestrohq/maestro/detect"
)

// typeRule is one entry in the ordered task-type table. The first rule with
// a matching keyword decides the task type.
type typeRule struct {
	taskType TaskType
	keywords []string
}

// typeRules is evaluated top to bottom. More specific intents come first so
// that "fix flaky test" is a bug fix, not testing work, while "add tests"
// without a defect keyword is testing work.
var typeRules = []typeRule{
	{TaskBugFix, []string{"fix", "bug", "crash", "broken", "error", "defect", "regression", "fault", "not working", "doesn't work", "fails"}},
	{TaskSecurity, []string{"security", "vulnerability", "cve", "exploit", "xss", "csrf", "injection", "sanitize", "harden"}},
	{TaskPerformance, []string{"performance", "slow", "optimize", "speed up", "latency", "throughput", "memory leak", "profiling"}},
	{TaskRefactor, []string{"refactor", "restructure", "clean up", "cleanup", "simplify", "extract", "rename", "reorganize", "decouple"}},
	{TaskTesting, []string{"test", "tests", "testing", "coverage", "unit test", "integration test", "e2e"}},
	{TaskDocumentation, []string{"document", "documentation", "docs", "readme", "comment", "changelog"}},
	{TaskNewFeature, []string{"feature", "support for", "endpoint", "page", "component", "integrate", "integration"}},
}

// creationVerbs make an otherwise unmatched description default to a new
// feature instead of an unclassifiable error.
var creationVerbs = []string{"add", "create", "build", "implement", "introduce", "write", "make", "update", "change", "set up", "setup", "new"}

// riskRule is one entry in the risk keyword table. Risk is assigned
// independently of size; the highest matching floor wins.
type riskRule struct {
	risk     Risk
	keywords []string
}

var riskRules = []riskRule{
	{RiskCritical, []string{"payment", "billing", "checkout", "charge", "refund", "money", "transaction"}},
	{RiskHigh, []string{"security", "auth", "authentication", "authorization", "login", "password", "credential", "token", "session", "migration", "migrate", "data migration", "schema change", "encryption", "pii", "gdpr"}},
	{RiskMedium, []string{"database", "api contract", "breaking change", "deploy", "infrastructure", "config change"}},
}

// Classifier maps task descriptions to classifications. It is a pure
// function of its inputs; identical descriptions and profiles always yield
// identical classifications.
type Classifier struct {
	thresholds config.ThresholdsConfig
	estimator  Estimator
	logger     *slog.Logger
}

// NewClassifier constructs a Classifier. A nil estimator selects the
// built-in heuristic estimator.
func NewClassifier(thresholds config.ThresholdsConfig, estimator Estimator, logger *slog.Logger) *Classifier {
	if estimator == nil {
		estimator = &HeuristicEstimator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		thresholds: thresholds,
		estimator:  estimator,
		logger:     logger,
	}
}

// Classify derives the task type, complexity, and risk for a description.
// Returns ErrUnclassifiable when no rule fires and the description does not
// imply creation; the caller should ask the user rather than guess.
func (c *Classifier) Classify(description string, profile *detect.Profile) (Classification, error) {
	normalized := strings.ToLower(strings.TrimSpace(description))
	if normalized == "" {
		return Classification{}, fmt.Errorf("%w: empty description", ErrUnclassifiable)
	}

	taskType, err := c.classifyType(normalized)
	if err != nil {
		return Classification{}, err
	}

	estimate, err := c.estimator.Estimate(description, profile)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to estimate task size: %w", err)
	}

	result := Classification{
		Type:       taskType,
		Complexity: c.complexityFor(estimate),
		Risk:       c.riskFor(normalized),
		Estimate:   estimate,
	}

	c.logger.Debug("Classified task",
		slog.String("type", string(result.Type)),
		slog.String("complexity", string(result.Complexity)),
		slog.String("risk", string(result.Risk)))

	return result, nil
}

// classifyType walks the ordered rule table; first match wins.
func (c *Classifier) classifyType(normalized string) (TaskType, error) {
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if containsWord(normalized, kw) {
				return rule.taskType, nil
			}
		}
	}
	for _, verb := range creationVerbs {
		if containsWord(normalized, verb) {
			return TaskNewFeature, nil
		}
	}
	return "", fmt.Errorf("%w: no task type rule matched", ErrUnclassifiable)
}

// complexityFor maps each estimate signal to an ordinal band and combines
// them by taking the maximum: a small diff spread over many files is at
// least Moderate, while a large single-file diff stays in its LOC band.
func (c *Classifier) complexityFor(estimate SizeEstimate) Complexity {
	result := bandFor(estimate.LOC,
		c.thresholds.TrivialMaxLOC, c.thresholds.SimpleMaxLOC,
		c.thresholds.ModerateMaxLOC, c.thresholds.ComplexMaxLOC)

	filesBand := bandFor(estimate.Files,
		c.thresholds.TrivialMaxFiles, c.thresholds.SimpleMaxFiles,
		c.thresholds.ModerateMaxFiles, c.thresholds.ComplexMaxFiles)
	result = maxComplexity(result, filesBand)

	if estimate.NewPattern {
		result = maxComplexity(result, ComplexityComplex)
	}
	return result
}

// bandFor places a value into a complexity band given the four inclusive
// upper bounds.
func bandFor(value, trivialMax, simpleMax, moderateMax, complexMax int) Complexity {
	switch {
	case value <= trivialMax:
		return ComplexityTrivial
	case value <= simpleMax:
		return ComplexitySimple
	case value <= moderateMax:
		return ComplexityModerate
	case value <= complexMax:
		return ComplexityComplex
	default:
		return ComplexityCritical
	}
}

// riskFor applies the fixed risk keyword table. The highest matching floor
// wins; descriptions with no risk keyword are Low.
func (c *Classifier) riskFor(normalized string) Risk {
	risk := RiskLow
	for _, rule := range riskRules {
		for _, kw := range rule.keywords {
			if containsWord(normalized, kw) {
				risk = maxRisk(risk, rule.risk)
				break
			}
		}
	}
	return risk
}

// containsWord reports whether the keyword occurs in the text on word
// boundaries, so "test" does not match "latest" and "fix" does not match
// "prefix".
func containsWord(text, keyword string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
