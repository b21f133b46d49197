package detect

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// excludedDirs lists directory names skipped while building a FileSet.
// These are generated output, dependency caches, or internal state.
var excludedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	".maestro":     true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".cache":       true,
}

// FileSet is the pure input to rule evaluation: the relative file paths
// present under a workspace root, plus the parsed dependency manifests found
// at the root itself. Paths are slash-separated and sorted so that rule
// evaluation is deterministic.
type FileSet struct {
	paths     []string
	manifests map[string]Manifest
}

// Manifest is the parsed dependency list of a root-level manifest file,
// keyed by dependency name.
type Manifest struct {
	Deps map[string]string
}

// NewFileSet builds a FileSet from explicit paths and manifests. Intended
// for tests and for callers that already have a file listing.
func NewFileSet(paths []string, manifests map[string]Manifest) *FileSet {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	if manifests == nil {
		manifests = map[string]Manifest{}
	}
	return &FileSet{paths: sorted, manifests: manifests}
}

// BuildFileSet walks the workspace root and collects relative file paths,
// skipping excluded and hidden directories. Dependency manifests are parsed
// at the root only; manifests in subdirectories contribute their path but
// not their contents. Parent directories are never consulted.
func BuildFileSet(root string) (*FileSet, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries produce no detection output rather than errors.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if excludedDirs[name] || (strings.HasPrefix(name, ".") && name != ".github") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifests := map[string]Manifest{}
	for name, parse := range manifestParsers {
		if deps := parse(filepath.Join(root, name)); deps != nil {
			manifests[name] = Manifest{Deps: deps}
		}
	}
	return NewFileSet(paths, manifests), nil
}

// Paths returns the sorted relative paths in the set.
func (s *FileSet) Paths() []string {
	return s.paths
}

// HasDep reports whether the named root-level manifest lists the dependency.
// The match is exact or prefix-based with a "/" boundary so that "svelte"
// matches "svelte" but not "svelte-check", while "github.com/gin-gonic/gin"
// matches versioned module paths.
func (s *FileSet) HasDep(manifest, dep string) bool {
	m, ok := s.manifests[manifest]
	if !ok {
		return false
	}
	for name := range m.Deps {
		if name == dep || strings.HasPrefix(name, dep+"/") {
			return true
		}
	}
	return false
}

// manifestParsers maps root manifest basenames to their parser. Parsers
// return nil when the file is absent or malformed.
var manifestParsers = map[string]func(path string) map[string]string{
	"package.json":     parsePackageJSON,
	"go.mod":           parseGoMod,
	"requirements.txt": parseRequirements,
	"Gemfile":          parseGemfile,
	"composer.json":    parseComposerJSON,
}

// packageJSON is a minimal representation of package.json for dependency
// inspection.
type packageJSON struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

func parsePackageJSON(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	deps := map[string]string{}
	for _, m := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for name, ver := range m {
			deps[name] = ver
		}
	}
	return deps
}

// parseGoMod extracts required module paths from go.mod via line scanning.
func parseGoMod(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	deps := map[string]string{}
	inBlock := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "require (":
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock || strings.HasPrefix(line, "require "):
			line = strings.TrimPrefix(line, "require ")
			fields := strings.Fields(line)
			if len(fields) >= 2 && !strings.HasPrefix(fields[0], "//") {
				deps[fields[0]] = fields[1]
			}
		}
	}
	return deps
}

// parseRequirements extracts package names from a requirements.txt file.
func parseRequirements(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	deps := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip version specifiers and extras: "django>=4.2", "uvicorn[standard]".
		name := line
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "!=", ";", " ", "["} {
			if idx := strings.Index(name, sep); idx >= 0 {
				name = name[:idx]
			}
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			deps[name] = ""
		}
	}
	return deps
}

// parseGemfile extracts gem names from a Gemfile via line scanning.
func parseGemfile(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	deps := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "gem ") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "gem "))
		rest = strings.Trim(rest, `"',`)
		if idx := strings.IndexAny(rest, `"',`); idx >= 0 {
			rest = rest[:idx]
		}
		if rest != "" {
			deps[rest] = ""
		}
	}
	return deps
}

// composerJSON is a minimal representation of composer.json.
type composerJSON struct {
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

func parseComposerJSON(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkg composerJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	deps := map[string]string{}
	for _, m := range []map[string]string{pkg.Require, pkg.RequireDev} {
		for name, ver := range m {
			deps[name] = ver
		}
	}
	return deps
}
