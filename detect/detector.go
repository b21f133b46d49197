package detect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Detector is the filesystem front-end of the rule engine. It builds a
// FileSet from a workspace root and applies the signature table to it.
type Detector struct {
	table         *Table
	minCategories int
	logger        *slog.Logger
}

// NewDetector constructs a Detector. A nil table selects the compiled-in
// default signature table.
func NewDetector(table *Table, minCategories int, logger *slog.Logger) *Detector {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		table:         table,
		minCategories: minCategories,
		logger:        logger,
	}
}

// Table returns the signature table the detector evaluates.
func (d *Detector) Table() *Table {
	return d.table
}

// Detect scans the workspace root and returns the detected profile.
// When fewer categories are detected than the configured minimum, the
// profile is still returned together with ErrProfileTooSparse so the caller
// can fall back to interactive questions.
func (d *Detector) Detect(root string) (*Profile, error) {
	files, err := BuildFileSet(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}

	profile := d.table.Apply(files)
	profile.Root = root

	d.logger.Debug("Detected workspace profile",
		slog.String("root", root),
		slog.Int("categories", profile.CategoryCount()),
		slog.Int("ambiguities", len(profile.Ambiguities)))

	if profile.CategoryCount() < d.minCategories {
		return profile, fmt.Errorf("%w: detected %d categories, need at least %d",
			ErrProfileTooSparse, profile.CategoryCount(), d.minCategories)
	}
	return profile, nil
}

// MinCategories returns the sparse-profile threshold the detector enforces.
func (d *Detector) MinCategories() int {
	return d.minCategories
}

// SaveProfile writes a profile to the given path as indented JSON, creating
// parent directories as needed. The write stamps DetectedAt: the timestamp
// is cache metadata, not part of the profile's identity, so two scans of the
// same tree stay comparable.
func SaveProfile(profile *Profile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	snapshot := *profile
	snapshot.DetectedAt = time.Now().UTC()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// LoadProfile reads a cached profile from the given path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if profile.Detections == nil {
		profile.Detections = map[Category]Detection{}
	}
	return &profile, nil
}
