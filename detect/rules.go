package detect

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// RuleKind identifies the class of a detection signal. Kinds carry an
// implied priority: a specific marker file wins outright over dependency
// inference, which wins over directory heuristics.
type RuleKind string

const (
	KindMarker     RuleKind = "marker"
	KindDependency RuleKind = "dependency"
	KindDirectory  RuleKind = "directory"
)

// defaultPriority maps a rule kind to its evaluation tier.
func (k RuleKind) defaultPriority() int {
	switch k {
	case KindMarker:
		return 3
	case KindDependency:
		return 2
	case KindDirectory:
		return 1
	}
	return 0
}

// Rule is a single pure detection signal: it either fires for a category
// with a technology, or it does not.
type Rule struct {
	Category   Category `yaml:"category"`
	Technology string   `yaml:"technology"`
	Kind       RuleKind `yaml:"kind"`
	// Pattern is a doublestar glob matched against relative workspace paths
	// (marker and directory rules). A bare basename matches at the root only.
	Pattern string `yaml:"pattern,omitempty"`
	// Manifest and Dep identify a root-level dependency manifest entry
	// (dependency rules).
	Manifest string `yaml:"manifest,omitempty"`
	Dep      string `yaml:"dep,omitempty"`
	// Priority overrides the kind's default tier. Rules for the same
	// category at the same tier that fire with different technologies are
	// recorded as an ambiguity, never tie-broken.
	Priority int `yaml:"priority,omitempty"`
}

// priority returns the effective evaluation tier of the rule.
func (r Rule) priority() int {
	if r.Priority != 0 {
		return r.Priority
	}
	return r.Kind.defaultPriority()
}

// match evaluates the rule against a FileSet. It returns the marker that
// fired (a path or a manifest dependency reference) and whether it fired.
func (r Rule) match(files *FileSet) (string, bool) {
	switch r.Kind {
	case KindMarker, KindDirectory:
		for _, path := range files.Paths() {
			if ok, err := doublestar.Match(r.Pattern, path); err == nil && ok {
				return path, true
			}
		}
	case KindDependency:
		if files.HasDep(r.Manifest, r.Dep) {
			return r.Manifest + ":" + r.Dep, true
		}
	}
	return "", false
}

// Table is an ordered signature table. Order matters only for the marker
// reported when several rules at one tier agree on a technology; conflicting
// technologies at one tier are an ambiguity regardless of order.
type Table struct {
	Rules []Rule `yaml:"rules"`
}

// LoadTable parses a YAML signature table.
func LoadTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse signature table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTableFromFile reads and parses a YAML signature table file.
func LoadTableFromFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature table: %w", err)
	}
	return LoadTable(data)
}

// Validate checks every rule for structural problems.
func (t *Table) Validate() error {
	for i, r := range t.Rules {
		if !r.Category.IsValid() {
			return fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		if r.Technology == "" {
			return fmt.Errorf("rule %d: technology is required", i)
		}
		switch r.Kind {
		case KindMarker, KindDirectory:
			if r.Pattern == "" {
				return fmt.Errorf("rule %d: pattern is required for %s rules", i, r.Kind)
			}
			if !doublestar.ValidatePattern(r.Pattern) {
				return fmt.Errorf("rule %d: invalid pattern %q", i, r.Pattern)
			}
		case KindDependency:
			if r.Manifest == "" || r.Dep == "" {
				return fmt.Errorf("rule %d: manifest and dep are required for dependency rules", i)
			}
		default:
			return fmt.Errorf("rule %d: unknown kind %q", i, r.Kind)
		}
	}
	return nil
}

// MatchesPath reports whether any marker or directory rule matches the
// relative path. Used by the staleness watcher to decide whether a file
// event can invalidate a cached profile.
func (t *Table) MatchesPath(path string) bool {
	for _, r := range t.Rules {
		if r.Kind == KindDependency {
			continue
		}
		if ok, err := doublestar.Match(r.Pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Apply evaluates the table against a FileSet and returns the resulting
// profile. Evaluation is per category: tiers are tried from highest to
// lowest, and the first tier with exactly one distinct technology fills the
// category. A tier with conflicting technologies records an ambiguity and
// leaves the category absent; no lower tier is consulted for it. Identical
// inputs always yield an identical profile.
func (t *Table) Apply(files *FileSet) *Profile {
	profile := &Profile{
		Detections: map[Category]Detection{},
	}

	for _, category := range Categories {
		tiers := t.tiersFor(category)
		for _, tier := range tiers {
			techs, markers := t.evaluateTier(files, category, tier)
			if len(techs) == 0 {
				continue
			}
			if len(techs) > 1 {
				profile.Ambiguities = append(profile.Ambiguities, Ambiguity{
					Category:     category,
					Technologies: techs,
					Markers:      markers,
				})
				break
			}
			profile.Detections[category] = Detection{
				Technology: techs[0],
				Marker:     markers[0],
				Confidence: confidenceFor(tier),
			}
			break
		}
	}

	return profile
}

// tiersFor returns the distinct priority tiers declared for a category,
// highest first.
func (t *Table) tiersFor(category Category) []int {
	seen := map[int]bool{}
	var tiers []int
	for _, r := range t.Rules {
		if r.Category != category {
			continue
		}
		p := r.priority()
		if !seen[p] {
			seen[p] = true
			tiers = append(tiers, p)
		}
	}
	// Insertion sort, descending. Tier counts are tiny.
	for i := 1; i < len(tiers); i++ {
		for j := i; j > 0 && tiers[j] > tiers[j-1]; j-- {
			tiers[j], tiers[j-1] = tiers[j-1], tiers[j]
		}
	}
	return tiers
}

// evaluateTier fires every rule for the category at the given tier and
// returns the distinct technologies (in rule declaration order) with the
// marker of each technology's first firing rule.
func (t *Table) evaluateTier(files *FileSet, category Category, tier int) ([]string, []string) {
	var techs, markers []string
	seen := map[string]bool{}
	for _, r := range t.Rules {
		if r.Category != category || r.priority() != tier {
			continue
		}
		marker, ok := r.match(files)
		if !ok || seen[r.Technology] {
			continue
		}
		seen[r.Technology] = true
		techs = append(techs, r.Technology)
		markers = append(markers, marker)
	}
	return techs, markers
}

// confidenceFor maps an evaluation tier to a confidence.
func confidenceFor(tier int) Confidence {
	switch {
	case tier >= 3:
		return ConfidenceHigh
	case tier == 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
