package detect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file (and parents) under root with the given content.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetectorDetect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/api\n\ngo 1.22\n\nrequire (\n\tgithub.com/gin-gonic/gin v1.10.0\n\tgorm.io/gorm v1.25.0\n)\n")
	writeFile(t, root, "go.sum", "")
	writeFile(t, root, "Dockerfile", "FROM golang:1.22\n")
	writeFile(t, root, ".github/workflows/ci.yml", "name: ci\n")

	detector := NewDetector(nil, 2, nil)
	profile, err := detector.Detect(root)
	require.NoError(t, err)

	assert.Equal(t, "Go", profile.Technology(CategoryLanguage))
	assert.Equal(t, "Gin", profile.Technology(CategoryBackendFramework))
	assert.Equal(t, "GORM", profile.Technology(CategoryORM))
	assert.Equal(t, "Docker", profile.Technology(CategoryContainerization))
	assert.Equal(t, "GitHub Actions", profile.Technology(CategoryCI))
	assert.Equal(t, root, profile.Root)
}

func TestDetectorSparseProfile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "nothing to see here\n")

	detector := NewDetector(nil, 2, nil)
	profile, err := detector.Detect(root)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileTooSparse))
	// The sparse profile is still returned so the caller can show what was
	// found alongside its clarifying questions.
	require.NotNil(t, profile)
	assert.Equal(t, 0, profile.CategoryCount())
}

func TestDetectorSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"express": "4.18.0"}}`)
	writeFile(t, root, "package-lock.json", "{}")
	// A vendored marker file must not leak into detection.
	writeFile(t, root, "node_modules/next/next.config.js", "")

	detector := NewDetector(nil, 0, nil)
	profile, err := detector.Detect(root)
	require.NoError(t, err)

	assert.Equal(t, "Express", profile.Technology(CategoryBackendFramework))
	_, ok := profile.Get(CategoryFrontendFramework)
	assert.False(t, ok, "markers under node_modules must be ignored")
}

func TestDetectorDeterministicAcrossScans(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"next": "14.0.0", "react": "18.0.0", "tailwindcss": "3.4.0"}, "devDependencies": {"vitest": "1.0.0", "typescript": "5.3.0"}}`)
	writeFile(t, root, "pnpm-lock.yaml", "")

	detector := NewDetector(nil, 0, nil)
	first, err := detector.Detect(root)
	require.NoError(t, err)

	// Whole-profile equality: no field, timestamps included, may differ
	// between scans of an unchanged tree.
	for i := 0; i < 10; i++ {
		next, err := detector.Detect(root)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}

	assert.Equal(t, "TypeScript", first.Technology(CategoryLanguage))
	assert.Equal(t, "Next.js", first.Technology(CategoryFrontendFramework))
	assert.Equal(t, "Tailwind CSS", first.Technology(CategoryStyling))
	assert.Equal(t, "Vitest", first.Technology(CategoryTestFramework))
	assert.Equal(t, "pnpm", first.Technology(CategoryPackageManager))
}

func TestProfileSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", "[package]\nname = \"svc\"\n")
	writeFile(t, root, "Cargo.lock", "")

	detector := NewDetector(nil, 0, nil)
	profile, err := detector.Detect(root)
	require.NoError(t, err)

	path := filepath.Join(root, ".maestro", "profile.json")
	require.NoError(t, SaveProfile(profile, path))

	loaded, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, profile.Detections, loaded.Detections)
	assert.Equal(t, profile.Root, loaded.Root)
	// The cache write stamps the timestamp; detection leaves it zero.
	assert.True(t, profile.DetectedAt.IsZero())
	assert.False(t, loaded.DetectedAt.IsZero())
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
