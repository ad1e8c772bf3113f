package graph

import (
	"github.com/attested/dossier/pkg/sanctions"
)

// Category names one bucket of the relationship summary.
type Category string

const (
	CategoryDirectorOf Category = "director_of"
	CategoryOwnerOf    Category = "owner_of"
	CategoryOwnedBy    Category = "owned_by"
	CategoryEmployeeOf Category = "employee_of"
	CategoryMemberOf   Category = "member_of"
	CategoryFamily     Category = "family"
	CategoryAssociate  Category = "associate"
	CategoryRelatedTo  Category = "related_to"
)

// roleRule describes how one relationship schema maps onto directional
// categories. roleA is checked before roleB; an empty category means the
// direction carries no bucket (the record only matters from the other
// side).
type roleRule struct {
	roleA     string
	roleB     string
	categoryA Category
	categoryB Category
}

// symmetric rules map both roles to the same category; those are the ones
// that need an explicit self-loop guard.
func (r roleRule) symmetric() bool {
	return r.categoryA != "" && r.categoryA == r.categoryB
}

// relationshipRules dispatches on the record's schema tag. New relationship
// types are added as rows here, not as new code paths.
var relationshipRules = map[string]roleRule{
	"Directorship":   {roleA: "director", roleB: "organization", categoryA: CategoryDirectorOf},
	"Ownership":      {roleA: "owner", roleB: "asset", categoryA: CategoryOwnerOf, categoryB: CategoryOwnedBy},
	"Employment":     {roleA: "employee", roleB: "employer", categoryA: CategoryEmployeeOf},
	"Membership":     {roleA: "member", roleB: "organization", categoryA: CategoryMemberOf},
	"Family":         {roleA: "person", roleB: "relative", categoryA: CategoryFamily, categoryB: CategoryFamily},
	"Associate":      {roleA: "person", roleB: "associate", categoryA: CategoryAssociate, categoryB: CategoryAssociate},
	"Succession":     {roleA: "subject", roleB: "object", categoryA: CategoryRelatedTo, categoryB: CategoryRelatedTo},
	"UnknownLink":    {roleA: "subject", roleB: "object", categoryA: CategoryRelatedTo, categoryB: CategoryRelatedTo},
	"Representation": {roleA: "subject", roleB: "object", categoryA: CategoryRelatedTo, categoryB: CategoryRelatedTo},
}

// Edge is one classified relationship relative to an anchor.
type Edge struct {
	Category      Category
	CounterpartID string
}

// Classify determines which role the anchor plays in a relationship record
// and returns the directional category plus the counterpart id. The second
// return is false when the record yields no classification: unrecognized
// schema, anchor in neither role, empty counterpart, or a symmetric
// self-loop. None of these are errors; adjacency listings routinely contain
// records that do not involve the queried anchor.
//
// Embedded captions seen while extracting the counterpart are recorded
// into cache.
func Classify(rec *sanctions.EntityRecord, anchorID string, cache CaptionCache) (Edge, bool) {
	if rec == nil || anchorID == "" {
		return Edge{}, false
	}
	rule, ok := relationshipRules[rec.Schema]
	if !ok {
		return Edge{}, false
	}

	var category Category
	var counterpart string

	switch {
	case containsID(rec.Properties[rule.roleA], anchorID):
		category = rule.categoryA
		counterpart = FirstTarget(rec.Properties[rule.roleB], cache)
	case containsID(rec.Properties[rule.roleB], anchorID):
		category = rule.categoryB
		counterpart = FirstTarget(rec.Properties[rule.roleA], cache)
	default:
		return Edge{}, false
	}

	if category == "" || counterpart == "" {
		return Edge{}, false
	}
	if rule.symmetric() && counterpart == anchorID {
		return Edge{}, false
	}

	return Edge{Category: category, CounterpartID: counterpart}, true
}
