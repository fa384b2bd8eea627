// Package catalog holds the static knowledge the matcher works from: the
// ordered field-pattern catalog and the security denylist.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsYAML []byte

// FieldPattern describes the recognizable attribute tokens for one semantic
// field key. Patterns are immutable catalog data, not user data.
type FieldPattern struct {
	Key          string   `yaml:"key"`
	Names        []string `yaml:"names"`
	Labels       []string `yaml:"labels"`
	Placeholders []string `yaml:"placeholders"`
	Types        []string `yaml:"types"`
}

type catalogFile struct {
	Patterns     []FieldPattern    `yaml:"patterns"`
	Autocomplete map[string]string `yaml:"autocomplete"`
}

var (
	// Patterns is the ordered pattern catalog. Declaration order is the
	// tie-break order on equal-confidence matches.
	Patterns []FieldPattern

	autocompleteMap map[string]string
)

func init() {
	var file catalogFile
	if err := yaml.Unmarshal(patternsYAML, &file); err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded patterns.yaml: %v", err))
	}
	if len(file.Patterns) == 0 {
		panic("catalog: embedded patterns.yaml has no patterns")
	}
	Patterns = file.Patterns
	autocompleteMap = file.Autocomplete
}

// AutocompleteKey maps an HTML autocomplete token to its semantic field key.
func AutocompleteKey(token string) (string, bool) {
	key, ok := autocompleteMap[token]
	return key, ok
}
