package detect

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	require.NotPanics(t, func() { DefaultTable() })
	table := DefaultTable()
	assert.NotEmpty(t, table.Rules)
}

func TestApplySingleBackendMarker(t *testing.T) {
	// A workspace containing only a backend framework marker file yields a
	// profile with exactly that category populated.
	files := NewFileSet([]string{"manage.py"}, nil)

	profile := DefaultTable().Apply(files)

	require.Equal(t, 1, profile.CategoryCount())
	d, ok := profile.Get(CategoryBackendFramework)
	require.True(t, ok)
	assert.Equal(t, "Django", d.Technology)
	assert.Equal(t, "manage.py", d.Marker)
	assert.Equal(t, ConfidenceHigh, d.Confidence)
	assert.Empty(t, profile.Ambiguities)

	_, ok = profile.Get(CategoryLanguage)
	assert.False(t, ok, "no language marker present, field must stay absent")
}

func TestApplyMarkerWinsOverDependency(t *testing.T) {
	// next.config.js (marker) must win over the react dependency signal for
	// the frontend framework category.
	files := NewFileSet(
		[]string{"next.config.js", "package.json"},
		map[string]Manifest{
			"package.json": {Deps: map[string]string{"next": "14.0.0", "react": "18.0.0"}},
		},
	)

	profile := DefaultTable().Apply(files)

	d, ok := profile.Get(CategoryFrontendFramework)
	require.True(t, ok)
	assert.Equal(t, "Next.js", d.Technology)
	assert.Equal(t, "next.config.js", d.Marker)
	assert.Equal(t, ConfidenceHigh, d.Confidence)
}

func TestApplyDependencyInference(t *testing.T) {
	files := NewFileSet(
		[]string{"package.json"},
		map[string]Manifest{
			"package.json": {Deps: map[string]string{"express": "4.18.0"}},
		},
	)

	profile := DefaultTable().Apply(files)

	d, ok := profile.Get(CategoryBackendFramework)
	require.True(t, ok)
	assert.Equal(t, "Express", d.Technology)
	assert.Equal(t, ConfidenceMedium, d.Confidence)
}

func TestApplyConflictRecordsAmbiguity(t *testing.T) {
	// Two frameworks at the same priority tier must surface as an ambiguity
	// for the category, never an arbitrary tie-break.
	files := NewFileSet(
		[]string{"package.json"},
		map[string]Manifest{
			"package.json": {Deps: map[string]string{"react": "18.0.0", "vue": "3.4.0"}},
		},
	)

	profile := DefaultTable().Apply(files)

	_, ok := profile.Get(CategoryFrontendFramework)
	assert.False(t, ok, "conflicting signals must not fill the category")

	require.Len(t, profile.Ambiguities, 1)
	amb := profile.Ambiguities[0]
	assert.Equal(t, CategoryFrontendFramework, amb.Category)
	assert.ElementsMatch(t, []string{"React", "Vue"}, amb.Technologies)
}

func TestApplyHigherTierShadowsConflict(t *testing.T) {
	// A meta-framework dependency at the higher tier resolves what would be
	// a conflict among base libraries below it.
	files := NewFileSet(
		[]string{"package.json"},
		map[string]Manifest{
			"package.json": {Deps: map[string]string{"next": "14.0.0", "react": "18.0.0"}},
		},
	)

	profile := DefaultTable().Apply(files)

	d, ok := profile.Get(CategoryFrontendFramework)
	require.True(t, ok)
	assert.Equal(t, "Next.js", d.Technology)
	assert.Empty(t, profile.Ambiguities)
}

func TestApplyDeterminism(t *testing.T) {
	files := NewFileSet(
		[]string{
			"go.mod", "go.sum", "Dockerfile", "Makefile",
			".github/workflows/ci.yml", "k8s/deploy.yaml",
		},
		map[string]Manifest{
			"go.mod": {Deps: map[string]string{
				"github.com/gin-gonic/gin": "v1.10.0",
				"gorm.io/gorm":             "v1.25.0",
				"github.com/lib/pq":        "v1.10.9",
			}},
		},
	)

	table := DefaultTable()
	first := table.Apply(files)
	for i := 0; i < 50; i++ {
		next := table.Apply(files)
		if !reflect.DeepEqual(first.Detections, next.Detections) {
			t.Fatalf("iteration %d: detections differ:\n%v\nvs\n%v", i, first.Detections, next.Detections)
		}
		if !reflect.DeepEqual(first.Ambiguities, next.Ambiguities) {
			t.Fatalf("iteration %d: ambiguities differ", i)
		}
	}

	// Spot check the detections themselves.
	assert.Equal(t, "Go", first.Technology(CategoryLanguage))
	assert.Equal(t, "Gin", first.Technology(CategoryBackendFramework))
	assert.Equal(t, "GORM", first.Technology(CategoryORM))
	assert.Equal(t, "PostgreSQL", first.Technology(CategoryDatabase))
	assert.Equal(t, "Docker", first.Technology(CategoryContainerization))
	assert.Equal(t, "Kubernetes", first.Technology(CategoryOrchestration))
	assert.Equal(t, "GitHub Actions", first.Technology(CategoryCI))
}

func TestApplyVersionedGoModulePath(t *testing.T) {
	files := NewFileSet(
		[]string{"go.mod"},
		map[string]Manifest{
			"go.mod": {Deps: map[string]string{"github.com/gofiber/fiber/v2": "v2.52.0"}},
		},
	)

	profile := DefaultTable().Apply(files)
	assert.Equal(t, "Fiber", profile.Technology(CategoryBackendFramework))
}

func TestLoadTableRejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown category",
			yaml: `rules: [{category: nonsense, technology: X, kind: marker, pattern: x}]`,
		},
		{
			name: "missing technology",
			yaml: `rules: [{category: language, kind: marker, pattern: x}]`,
		},
		{
			name: "marker without pattern",
			yaml: `rules: [{category: language, technology: X, kind: marker}]`,
		},
		{
			name: "dependency without manifest",
			yaml: `rules: [{category: language, technology: X, kind: dependency, dep: x}]`,
		},
		{
			name: "unknown kind",
			yaml: `rules: [{category: language, technology: X, kind: magic, pattern: x}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestMatchesPath(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.MatchesPath("go.mod"))
	assert.True(t, table.MatchesPath("next.config.js"))
	assert.True(t, table.MatchesPath(".github/workflows/release.yml"))
	assert.False(t, table.MatchesPath("internal/server/main.go"))
	assert.False(t, table.MatchesPath("web/next.config.js"), "bare basenames match at the root only")
}
