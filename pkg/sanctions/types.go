package sanctions

import (
	"encoding/json"
)

// EntityRecord is an immutable snapshot of one entity as returned by the
// screening API. Relationship records share the same shape; their Schema
// names a relationship type (Ownership, Directorship, ...) and their
// property lists hold the two endpoints.
type EntityRecord struct {
	ID         string             `json:"id"`
	Caption    string             `json:"caption"`
	Schema     string             `json:"schema"`
	Properties map[string][]Value `json:"properties"`
	Datasets   []string           `json:"datasets,omitempty"`
}

// Value is a single entry in a property list. The API returns either a bare
// string or a nested entity object; at most one of the two fields is set.
type Value struct {
	Str    string
	Entity *EntityRecord
}

// IsEntity reports whether the value carries a nested entity object.
func (v Value) IsEntity() bool {
	return v.Entity != nil
}

// UnmarshalJSON accepts both wire shapes of a property value. Anything that
// is neither a string nor an object decodes to an empty value rather than
// an error; the upstream data is not under our control.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Str = s
		v.Entity = nil
		return nil
	}

	var rec EntityRecord
	if err := json.Unmarshal(data, &rec); err == nil {
		v.Str = ""
		v.Entity = &rec
		return nil
	}

	v.Str = ""
	v.Entity = nil
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Entity != nil {
		return json.Marshal(v.Entity)
	}
	return json.Marshal(v.Str)
}

// TotalCount mirrors the elasticsearch-style total in search responses.
type TotalCount struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// SearchResult is the response body of the default search endpoint.
type SearchResult struct {
	Total   TotalCount     `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Results []EntityRecord `json:"results"`
}

// SearchParams holds the query parameters of the default search endpoint.
// Zero values are omitted from the request.
type SearchParams struct {
	Query     string
	Limit     int
	Offset    int
	Schema    string
	Datasets  []string
	Topics    []string
	Countries []string
}
