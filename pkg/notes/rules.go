package notes

import (
	"encoding/json"
	"fmt"
	"os"
)

// SchemaRules configures note rendering for one entity schema: which
// property names appear (in order) and which of them render their entity
// references as wikilinks.
type SchemaRules struct {
	Include  []string `json:"include"`
	Wikilink []string `json:"wikilink"`
}

// Rules maps schema tags to their rendering configuration, with a fallback
// applied to schemas that have no entry of their own.
type Rules struct {
	Default SchemaRules            `json:"default"`
	Schemas map[string]SchemaRules `json:"schemas"`
}

// DefaultRules covers the schemas the screening API most commonly returns.
func DefaultRules() *Rules {
	return &Rules{
		Default: SchemaRules{
			Include: []string{"name", "alias", "country", "topics", "notes"},
		},
		Schemas: map[string]SchemaRules{
			"Person": {
				Include:  []string{"name", "alias", "birthDate", "nationality", "country", "position", "topics", "notes"},
				Wikilink: []string{"position"},
			},
			"Company": {
				Include:  []string{"name", "alias", "jurisdiction", "registrationNumber", "country", "topics", "notes"},
				Wikilink: []string{"jurisdiction"},
			},
			"Organization": {
				Include: []string{"name", "alias", "country", "topics", "notes"},
			},
		},
	}
}

// LoadRules reads a rules file. An empty path yields the defaults; a
// missing or malformed file is an error, not a silent fallback.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note rules: %w", err)
	}

	rules := new(Rules)
	if err := json.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parsing note rules: %w", err)
	}
	return rules, nil
}

// For returns the rules for a schema, falling back to the default set.
func (r *Rules) For(schema string) SchemaRules {
	if rules, ok := r.Schemas[schema]; ok {
		return rules
	}
	return r.Default
}

// Includes reports whether a property should be rendered. An empty include
// list admits every property.
func (s SchemaRules) Includes(prop string) bool {
	if len(s.Include) == 0 {
		return true
	}
	for _, name := range s.Include {
		if name == prop {
			return true
		}
	}
	return false
}

// IsWikilink reports whether a property's referenced entities render as
// wikilinks.
func (s SchemaRules) IsWikilink(prop string) bool {
	for _, name := range s.Wikilink {
		if name == prop {
			return true
		}
	}
	return false
}
