package graph

import (
	"github.com/attested/dossier/pkg/sanctions"
)

// ExtractEntityID collapses a property value to a plain identifier: the
// string itself for bare values, the nested record's id for embedded
// references. Malformed values yield "".
func ExtractEntityID(v sanctions.Value) string {
	if v.Entity != nil {
		return v.Entity.ID
	}
	return v.Str
}

// FirstTarget returns the first resolvable identifier in values. Embedded
// captions encountered along the way are recorded into cache as a side
// effect, so a later resolution pass can skip them.
func FirstTarget(values []sanctions.Value, cache CaptionCache) string {
	for _, v := range values {
		id := ExtractEntityID(v)
		if id == "" {
			continue
		}
		if v.Entity != nil {
			cache.Seed(id, v.Entity.Caption)
		}
		return id
	}
	return ""
}

// containsID reports whether any value in the list carries the given
// identifier.
func containsID(values []sanctions.Value, id string) bool {
	for _, v := range values {
		if ExtractEntityID(v) == id {
			return true
		}
	}
	return false
}

// NestedEntities scans every property list of a record and collects the
// embedded references that look like full records (both id and schema
// present). The API embeds relationship records inline in the primary
// entity this way instead of exposing them via the adjacency endpoint.
func NestedEntities(props map[string][]sanctions.Value) []sanctions.EntityRecord {
	var nested []sanctions.EntityRecord
	for _, values := range props {
		for _, v := range values {
			if v.Entity == nil {
				continue
			}
			if v.Entity.ID == "" || v.Entity.Schema == "" {
				continue
			}
			nested = append(nested, *v.Entity)
		}
	}
	return nested
}

// seedEmbeddedCaptions records every embedded caption visible in a record's
// property values into cache.
func seedEmbeddedCaptions(rec *sanctions.EntityRecord, cache CaptionCache) {
	for _, values := range rec.Properties {
		for _, v := range values {
			if v.Entity != nil {
				cache.Seed(v.Entity.ID, v.Entity.Caption)
			}
		}
	}
}
