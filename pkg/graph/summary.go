package graph

// RelationshipSummary is the category bucket set of one enriched entity.
// Each bucket holds counterpart display names, unique within the bucket,
// in first-seen order. The same name may appear in several buckets when the
// counterpart holds distinct relationship types simultaneously.
type RelationshipSummary struct {
	DirectorOf []string `json:"director_of,omitempty"`
	OwnerOf    []string `json:"owner_of,omitempty"`
	OwnedBy    []string `json:"owned_by,omitempty"`
	EmployeeOf []string `json:"employee_of,omitempty"`
	MemberOf   []string `json:"member_of,omitempty"`
	Family     []string `json:"family,omitempty"`
	Associates []string `json:"associates,omitempty"`
	RelatedTo  []string `json:"related_to,omitempty"`
}

func (s *RelationshipSummary) bucket(category Category) *[]string {
	switch category {
	case CategoryDirectorOf:
		return &s.DirectorOf
	case CategoryOwnerOf:
		return &s.OwnerOf
	case CategoryOwnedBy:
		return &s.OwnedBy
	case CategoryEmployeeOf:
		return &s.EmployeeOf
	case CategoryMemberOf:
		return &s.MemberOf
	case CategoryFamily:
		return &s.Family
	case CategoryAssociate:
		return &s.Associates
	case CategoryRelatedTo:
		return &s.RelatedTo
	}
	return nil
}

// Add appends a display name to the category's bucket unless the bucket
// already holds it (case-sensitive exact match).
func (s *RelationshipSummary) Add(category Category, displayName string) {
	b := s.bucket(category)
	if b == nil || displayName == "" {
		return
	}
	for _, existing := range *b {
		if existing == displayName {
			return
		}
	}
	*b = append(*b, displayName)
}

// Count returns the total number of bucket entries.
func (s *RelationshipSummary) Count() int {
	n := 0
	for _, b := range s.Buckets() {
		n += len(b.Names)
	}
	return n
}

// IsEmpty reports whether no bucket holds any entry.
func (s *RelationshipSummary) IsEmpty() bool {
	return s.Count() == 0
}

// NamedBucket pairs a human-readable bucket label with its entries, for
// rendering.
type NamedBucket struct {
	Label string
	Names []string
}

// Buckets returns all buckets in their fixed display order; empty buckets
// are included and left to the renderer to skip.
func (s *RelationshipSummary) Buckets() []NamedBucket {
	return []NamedBucket{
		{Label: "Director of", Names: s.DirectorOf},
		{Label: "Owner of", Names: s.OwnerOf},
		{Label: "Owned by", Names: s.OwnedBy},
		{Label: "Employee of", Names: s.EmployeeOf},
		{Label: "Member of", Names: s.MemberOf},
		{Label: "Family", Names: s.Family},
		{Label: "Associates", Names: s.Associates},
		{Label: "Related to", Names: s.RelatedTo},
	}
}
