// Package eval runs application fixtures through the pipeline at each model tier, checks
// every result against the guardrail assertions and produces a JSON report.
package eval

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

//go:embed fixtures/*.json
var builtinFS embed.FS

// Expectations are optional fixture-specific checks on the deterministic coverage.
type Expectations struct {
	MatchedKeywords         []string `json:"matchedKeywords,omitempty"`
	MissingKeywords         []string `json:"missingKeywords,omitempty"`
	HardRequirementsMissing []string `json:"hardRequirementsMissing,omitempty"`
}

// Fixture is one application run through the harness.
type Fixture struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description,omitempty"`
	Input       types.ApplicationInput `json:"input"`
	Expect      Expectations           `json:"expect"`
}

// BuiltinFixtures returns the fixtures shipped with the binary, sorted by ID.
func BuiltinFixtures() ([]Fixture, error) {
	return loadFS(builtinFS, "fixtures")
}

// LoadFixtures reads every *.json file in dir as a fixture, sorted by ID.
func LoadFixtures(dir string) ([]Fixture, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) ([]Fixture, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var fixtures []Fixture
	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.ToSlash(filepath.Join(dir, entry.Name()))
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", entry.Name(), err)
		}
		var f Fixture
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", entry.Name(), err)
		}
		if f.ID == "" {
			f.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		if prev, ok := seen[f.ID]; ok {
			return nil, fmt.Errorf("duplicate fixture id %q in %s and %s", f.ID, prev, entry.Name())
		}
		seen[f.ID] = entry.Name()
		fixtures = append(fixtures, f)
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures found")
	}

	sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].ID < fixtures[j].ID })
	return fixtures, nil
}
