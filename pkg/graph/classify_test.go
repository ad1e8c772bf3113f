package graph

import (
	"reflect"
	"testing"

	"github.com/attested/dossier/pkg/sanctions"
)

func strVal(s string) sanctions.Value {
	return sanctions.Value{Str: s}
}

func refVal(id, caption string) sanctions.Value {
	return sanctions.Value{Entity: &sanctions.EntityRecord{ID: id, Caption: caption}}
}

func relRecord(id, schema string, props map[string][]sanctions.Value) sanctions.EntityRecord {
	return sanctions.EntityRecord{ID: id, Schema: schema, Properties: props}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		record   sanctions.EntityRecord
		anchor   string
		want     Edge
		wantNone bool
	}{
		{
			name: "ownership anchor as owner",
			record: relRecord("r1", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("X")},
				"asset": {strVal("Y")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryOwnerOf, CounterpartID: "Y"},
		},
		{
			name: "ownership anchor as asset",
			record: relRecord("r1", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("Z")},
				"asset": {strVal("X")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryOwnedBy, CounterpartID: "Z"},
		},
		{
			name: "directorship anchor as director",
			record: relRecord("r2", "Directorship", map[string][]sanctions.Value{
				"director":     {strVal("X")},
				"organization": {strVal("org-1")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryDirectorOf, CounterpartID: "org-1"},
		},
		{
			name: "directorship anchor as organization has no reverse category",
			record: relRecord("r2", "Directorship", map[string][]sanctions.Value{
				"director":     {strVal("p-1")},
				"organization": {strVal("X")},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "employment anchor as employee",
			record: relRecord("r3", "Employment", map[string][]sanctions.Value{
				"employee": {strVal("X")},
				"employer": {strVal("acme")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryEmployeeOf, CounterpartID: "acme"},
		},
		{
			name: "employment anchor as employer has no reverse category",
			record: relRecord("r3", "Employment", map[string][]sanctions.Value{
				"employee": {strVal("p-1")},
				"employer": {strVal("X")},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "membership anchor as member",
			record: relRecord("r4", "Membership", map[string][]sanctions.Value{
				"member":       {strVal("X")},
				"organization": {strVal("party-1")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryMemberOf, CounterpartID: "party-1"},
		},
		{
			name: "family symmetric from either role",
			record: relRecord("r5", "Family", map[string][]sanctions.Value{
				"person":   {strVal("rel-1")},
				"relative": {strVal("X")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryFamily, CounterpartID: "rel-1"},
		},
		{
			name: "associate symmetric",
			record: relRecord("r6", "Associate", map[string][]sanctions.Value{
				"person":    {strVal("X")},
				"associate": {strVal("a-1")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryAssociate, CounterpartID: "a-1"},
		},
		{
			name: "succession maps to related",
			record: relRecord("r7", "Succession", map[string][]sanctions.Value{
				"subject": {strVal("X")},
				"object":  {strVal("s-1")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryRelatedTo, CounterpartID: "s-1"},
		},
		{
			name: "unknown schema yields nothing",
			record: relRecord("r8", "Sanction", map[string][]sanctions.Value{
				"subject": {strVal("X")},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "anchor in neither role yields nothing",
			record: relRecord("r9", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("A")},
				"asset": {strVal("B")},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "both role lists empty yields nothing",
			record: relRecord("r10", "Ownership", map[string][]sanctions.Value{
				"owner": {},
				"asset": {},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "family self loop is dropped",
			record: relRecord("r11", "Family", map[string][]sanctions.Value{
				"person":   {strVal("X")},
				"relative": {strVal("X")},
			}),
			anchor:   "X",
			wantNone: true,
		},
		{
			name: "counterpart from embedded reference",
			record: relRecord("r12", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("X")},
				"asset": {refVal("Y", "Acme Corp")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryOwnerOf, CounterpartID: "Y"},
		},
		{
			name: "malformed leading values are skipped",
			record: relRecord("r13", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("X")},
				"asset": {{}, strVal("Y")},
			}),
			anchor: "X",
			want:   Edge{Category: CategoryOwnerOf, CounterpartID: "Y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := CaptionCache{}
			got, ok := Classify(&tt.record, tt.anchor, cache)
			if tt.wantNone {
				if ok {
					t.Fatalf("Classify() = %+v, want no classification", got)
				}
				return
			}
			if !ok {
				t.Fatalf("Classify() yielded nothing, want %+v", tt.want)
			}
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	record := relRecord("r1", "Ownership", map[string][]sanctions.Value{
		"owner": {strVal("X")},
		"asset": {refVal("Y", "Acme Corp")},
	})

	first, okFirst := Classify(&record, "X", CaptionCache{})
	second, okSecond := Classify(&record, "X", CaptionCache{})

	if okFirst != okSecond || first != second {
		t.Errorf("Classify() not idempotent: (%+v, %v) vs (%+v, %v)", first, okFirst, second, okSecond)
	}
}

func TestClassifySeedsEmbeddedCaption(t *testing.T) {
	record := relRecord("r1", "Ownership", map[string][]sanctions.Value{
		"owner": {strVal("X")},
		"asset": {refVal("Y", "Acme Corp")},
	})

	cache := CaptionCache{}
	if _, ok := Classify(&record, "X", cache); !ok {
		t.Fatal("Classify() yielded nothing")
	}
	if got := cache.Display("Y"); got != "Acme Corp" {
		t.Errorf("cache.Display(Y) = %q, want %q", got, "Acme Corp")
	}
}

func TestRelationshipSummaryAdd(t *testing.T) {
	s := &RelationshipSummary{}
	s.Add(CategoryFamily, "John Doe")
	s.Add(CategoryFamily, "John Doe")
	s.Add(CategoryFamily, "Jane Doe")
	s.Add(CategoryOwnerOf, "John Doe")

	if want := []string{"John Doe", "Jane Doe"}; !reflect.DeepEqual(s.Family, want) {
		t.Errorf("Family = %v, want %v", s.Family, want)
	}
	if want := []string{"John Doe"}; !reflect.DeepEqual(s.OwnerOf, want) {
		t.Errorf("OwnerOf = %v, want %v", s.OwnerOf, want)
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
}
