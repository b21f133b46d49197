// Package detect infers a workspace technology profile from configuration
// file signatures. All detection is deterministic file-presence logic; no
// external calls are made.
package detect

import (
	"errors"
	"time"
)

// Category identifies one axis of the technology profile.
type Category string

const (
	CategoryLanguage          Category = "language"
	CategoryFrontendFramework Category = "frontend_framework"
	CategoryBackendFramework  Category = "backend_framework"
	CategoryDatabase          Category = "database"
	CategoryORM               Category = "orm"
	CategoryTestFramework     Category = "test_framework"
	CategoryStyling           Category = "styling"
	CategoryStateManagement   Category = "state_management"
	CategoryBuildTool         Category = "build_tool"
	CategoryPackageManager    Category = "package_manager"
	CategoryContainerization  Category = "containerization"
	CategoryOrchestration     Category = "orchestration"
	CategoryIaC               Category = "iac"
	CategoryCI                Category = "ci"
	CategoryWebServer         Category = "web_server"
	CategoryCloud             Category = "cloud"
)

// Categories lists all known categories in evaluation order. Rules are
// applied per category in this order so that profile construction never
// depends on map iteration.
var Categories = []Category{
	CategoryLanguage,
	CategoryFrontendFramework,
	CategoryBackendFramework,
	CategoryDatabase,
	CategoryORM,
	CategoryTestFramework,
	CategoryStyling,
	CategoryStateManagement,
	CategoryBuildTool,
	CategoryPackageManager,
	CategoryContainerization,
	CategoryOrchestration,
	CategoryIaC,
	CategoryCI,
	CategoryWebServer,
	CategoryCloud,
}

// IsValid returns true if the category is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Confidence expresses how strong a detection signal is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Detection is a single detected technology fact.
type Detection struct {
	Technology string     `json:"technology"`
	Marker     string     `json:"marker"`
	Confidence Confidence `json:"confidence"`
}

// Ambiguity records conflicting signals for one category. Ambiguities are
// never tie-broken; they surface as clarifying questions to the user.
type Ambiguity struct {
	Category     Category `json:"category"`
	Technologies []string `json:"technologies"`
	Markers      []string `json:"markers"`
}

// Profile holds the detected technology facts for a workspace. A missing
// category means nothing was detected for it; values are never guessed.
// A profile is immutable once computed; re-detection produces a new one.
type Profile struct {
	Root        string                 `json:"root,omitempty"`
	Detections  map[Category]Detection `json:"detections"`
	Ambiguities []Ambiguity            `json:"ambiguities,omitempty"`
	// DetectedAt is cache metadata stamped by SaveProfile. Detection itself
	// never sets it: identical file sets yield identical profiles.
	DetectedAt time.Time `json:"detected_at"`
}

// Get returns the detection for a category, if present.
func (p *Profile) Get(category Category) (Detection, bool) {
	d, ok := p.Detections[category]
	return d, ok
}

// Technology returns the detected technology for a category, or an empty
// string when the category is absent.
func (p *Profile) Technology(category Category) string {
	if d, ok := p.Detections[category]; ok {
		return d.Technology
	}
	return ""
}

// CategoryCount returns the number of categories with a detection.
func (p *Profile) CategoryCount() int {
	return len(p.Detections)
}

// ErrProfileTooSparse signals that fewer categories were detected than the
// configured minimum. The caller should fall back to interactive questions
// instead of proceeding with a mostly-empty profile.
var ErrProfileTooSparse = errors.New("detected profile is too sparse")
