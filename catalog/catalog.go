// Package catalog holds the static registry of agent capabilities and the
// deterministic routing that turns a stack profile and a task
// classification into an execution pipeline.
package catalog

import (
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/workflow"
)

// Category distinguishes always-eligible core agents from stack-activated
// specialists.
type Category string

const (
	CategoryCore       Category = "core"
	CategorySpecialist Category = "specialist"
)

// Descriptor is a named capability. Descriptors are static: loaded once and
// never mutated at runtime.
type Descriptor struct {
	// ID uniquely names the capability.
	ID string
	// Category is core or specialist.
	Category Category
	// Stage is the pipeline stage the capability serves.
	Stage workflow.Stage
	// Priority orders capabilities within a stage; lower runs earlier.
	Priority int
	// Matches is the applicability predicate over the profile. Nil means
	// always applicable.
	Matches func(*detect.Profile) bool
	// TaskTemplate seeds the step task; the task description is
	// interpolated at the %s verb.
	TaskTemplate string
	// ExpectedOutput describes what the step should produce.
	ExpectedOutput string
}

// applies reports whether the descriptor activates for the profile.
func (d Descriptor) applies(profile *detect.Profile) bool {
	if d.Matches == nil {
		return true
	}
	if profile == nil {
		return false
	}
	return d.Matches(profile)
}

// Catalog is the loaded registry. Declaration order carries no meaning:
// selection sorts by stage, priority, then ID.
type Catalog struct {
	descriptors []Descriptor
	byID        map[string]Descriptor
}

// Sentinel errors for catalog operations.
var (
	ErrDuplicateDescriptor = errors.New("duplicate descriptor id")
	ErrUnknownDescriptor   = errors.New("unknown descriptor id")
)

// New builds a catalog from descriptors.
func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		descriptors: descriptors,
		byID:        make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("descriptor with empty id")
		}
		if !d.Stage.IsValid() {
			return nil, fmt.Errorf("descriptor %q: unknown stage %q", d.ID, d.Stage)
		}
		if _, exists := c.byID[d.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDescriptor, d.ID)
		}
		c.byID[d.ID] = d
	}
	return c, nil
}

// Has reports whether the id names a descriptor in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Get returns the descriptor for an id.
func (c *Catalog) Get(id string) (Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownDescriptor, id)
	}
	return d, nil
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}
