// Package prompts loads the embedded stage prompt templates and builds the quoted payload
// blocks that carry user-supplied text into a prompt.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Prompt parts of a stage. Keys in stages.json are "<stage>.<part>".
const (
	PartSystem     = "system"
	PartUser       = "user"
	PartCorrection = "correction"
)

//go:embed stages.json
var stagesJSON []byte

// templates is parsed once and read-only afterwards.
var templates = sync.OnceValues(func() (map[string]string, error) {
	var parsed map[string]string
	if err := json.Unmarshal(stagesJSON, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse stage prompts: %w", err)
	}
	return parsed, nil
})

// Stage returns one part of a stage's prompt set.
func Stage(stage, part string) (string, error) {
	all, err := templates()
	if err != nil {
		return "", err
	}
	key := stage + "." + part
	prompt, ok := all[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", key)
	}
	return prompt, nil
}

// Keys lists every template key, sorted.
func Keys() ([]string, error) {
	all, err := templates()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Format substitutes {{.Key}} placeholders in one pass, so values are never re-expanded.
// Unknown placeholders are left in place.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
