package graph

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/attested/dossier/pkg/sanctions"
)

// fakeAPI serves canned records and tracks per-id entity fetch counts.
type fakeAPI struct {
	entities   map[string]sanctions.EntityRecord
	adjacent   []sanctions.EntityRecord
	entityErrs map[string]error

	mu          sync.Mutex
	entityCalls map[string]int
}

func (f *fakeAPI) GetEntity(ctx context.Context, id string) (*sanctions.EntityRecord, error) {
	f.mu.Lock()
	if f.entityCalls == nil {
		f.entityCalls = map[string]int{}
	}
	f.entityCalls[id]++
	f.mu.Unlock()

	if err, ok := f.entityErrs[id]; ok {
		return nil, err
	}
	if rec, ok := f.entities[id]; ok {
		return &rec, nil
	}
	return nil, &sanctions.APIError{Kind: sanctions.KindNotFound, Status: 404, Message: "no such entity"}
}

func (f *fakeAPI) GetAdjacent(ctx context.Context, id string, limit int) []sanctions.EntityRecord {
	return f.adjacent
}

func (f *fakeAPI) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entityCalls[id]
}

func anchorRecord(id, caption string, props map[string][]sanctions.Value) sanctions.EntityRecord {
	if props == nil {
		props = map[string][]sanctions.Value{}
	}
	return sanctions.EntityRecord{ID: id, Caption: caption, Schema: "Person", Properties: props}
}

func newTestEnricher(api API) *Enricher {
	return NewEnricher(NewEnricherParams{API: api, MaxParallel: 2})
}

func TestFetchWithRelationshipsOwnership(t *testing.T) {
	// Scenario: X owns Y, Y resolves to "Acme Corp".
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "John Doe", nil),
			"Y": {ID: "Y", Caption: "Acme Corp", Schema: "Company"},
		},
		adjacent: []sanctions.EntityRecord{
			relRecord("r1", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("X")},
				"asset": {strVal("Y")},
			}),
		},
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}

	if want := []string{"Acme Corp"}; !reflect.DeepEqual(enriched.Relationships.OwnerOf, want) {
		t.Errorf("OwnerOf = %v, want %v", enriched.Relationships.OwnerOf, want)
	}
	if enriched.Entity.Caption != "John Doe" {
		t.Errorf("entity caption = %q", enriched.Entity.Caption)
	}
}

func TestFetchWithRelationshipsResolverFallback(t *testing.T) {
	// Scenario: X owned by Z, Z's caption lookup fails, raw id is used.
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "Target Corp", nil),
		},
		entityErrs: map[string]error{
			"Z": &sanctions.APIError{Kind: sanctions.KindUpstreamFailure, Status: 500, Message: "boom"},
		},
		adjacent: []sanctions.EntityRecord{
			relRecord("r1", "Ownership", map[string][]sanctions.Value{
				"owner": {strVal("Z")},
				"asset": {strVal("X")},
			}),
		},
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}
	if want := []string{"Z"}; !reflect.DeepEqual(enriched.Relationships.OwnedBy, want) {
		t.Errorf("OwnedBy = %v, want %v", enriched.Relationships.OwnedBy, want)
	}
}

func TestFetchWithRelationshipsEmptyAdjacency(t *testing.T) {
	// Scenario: adjacency degraded to empty, embedded nested record still found.
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "John Doe", map[string][]sanctions.Value{
				"familyPerson": {
					{Entity: &sanctions.EntityRecord{
						ID:     "rel-1",
						Schema: "Family",
						Properties: map[string][]sanctions.Value{
							"person":   {strVal("X")},
							"relative": {refVal("R", "Jane Doe")},
						},
					}},
				},
			}),
		},
		adjacent: nil,
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}
	if want := []string{"Jane Doe"}; !reflect.DeepEqual(enriched.Relationships.Family, want) {
		t.Errorf("Family = %v, want %v", enriched.Relationships.Family, want)
	}
	// The embedded caption must have pre-empted a follow-up fetch.
	if got := api.calls("R"); got != 0 {
		t.Errorf("counterpart R fetched %d times, want 0", got)
	}
}

func TestFetchWithRelationshipsMergeDedup(t *testing.T) {
	// The same relationship id in both sources is classified once, with the
	// adjacency copy winning.
	adjCopy := relRecord("r1", "Ownership", map[string][]sanctions.Value{
		"owner": {strVal("X")},
		"asset": {refVal("Y", "Adjacency Copy Corp")},
	})
	nestedCopy := relRecord("r1", "Ownership", map[string][]sanctions.Value{
		"owner": {refVal("Y", "Nested Copy Corp")},
		"asset": {strVal("X")},
	})

	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "John Doe", map[string][]sanctions.Value{
				"ownershipOwner": {{Entity: &nestedCopy}},
			}),
		},
		adjacent: []sanctions.EntityRecord{adjCopy},
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}

	if want := []string{"Adjacency Copy Corp"}; !reflect.DeepEqual(enriched.Relationships.OwnerOf, want) {
		t.Errorf("OwnerOf = %v, want %v", enriched.Relationships.OwnerOf, want)
	}
	if len(enriched.Relationships.OwnedBy) != 0 {
		t.Errorf("OwnedBy = %v, want empty (nested copy must not be classified)", enriched.Relationships.OwnedBy)
	}
}

func TestFetchWithRelationshipsBucketDedup(t *testing.T) {
	// Two distinct records resolving to the same display name collapse to
	// one bucket entry.
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "John Sr", nil),
		},
		adjacent: []sanctions.EntityRecord{
			relRecord("r1", "Family", map[string][]sanctions.Value{
				"person":   {strVal("X")},
				"relative": {refVal("A", "John Doe")},
			}),
			relRecord("r2", "Family", map[string][]sanctions.Value{
				"person":   {strVal("X")},
				"relative": {refVal("B", "John Doe")},
			}),
		},
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}
	if want := []string{"John Doe"}; !reflect.DeepEqual(enriched.Relationships.Family, want) {
		t.Errorf("Family = %v, want %v", enriched.Relationships.Family, want)
	}
}

func TestFetchWithRelationshipsSelfLoop(t *testing.T) {
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"X": anchorRecord("X", "John Doe", nil),
		},
		adjacent: []sanctions.EntityRecord{
			relRecord("r1", "Family", map[string][]sanctions.Value{
				"person":   {strVal("X")},
				"relative": {strVal("X")},
			}),
		},
	}

	enriched, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "X")
	if err != nil {
		t.Fatalf("FetchWithRelationships() error: %v", err)
	}
	if !enriched.Relationships.IsEmpty() {
		t.Errorf("summary = %+v, want empty (self loop)", enriched.Relationships)
	}
}

func TestFetchWithRelationshipsPrimaryFailureIsFatal(t *testing.T) {
	api := &fakeAPI{}
	_, err := newTestEnricher(api).FetchWithRelationships(context.Background(), "missing")
	if err == nil {
		t.Fatal("FetchWithRelationships() succeeded, want error")
	}
	if kind := sanctions.KindOf(err); kind != sanctions.KindNotFound {
		t.Errorf("error kind = %v, want not_found", kind)
	}
}

func TestResolveCaptionsAttemptsEachIDOnce(t *testing.T) {
	api := &fakeAPI{
		entities: map[string]sanctions.EntityRecord{
			"A": {ID: "A", Caption: "Alpha"},
		},
		entityErrs: map[string]error{
			"B": &sanctions.APIError{Kind: sanctions.KindNetworkUnreachable, Message: "down"},
		},
	}
	e := newTestEnricher(api)

	cache := CaptionCache{"C": "Cached"}
	e.resolveCaptions(context.Background(), []string{"A", "A", "B", "C", ""}, cache)

	if got := api.calls("A"); got != 1 {
		t.Errorf("A fetched %d times, want 1", got)
	}
	if got := api.calls("B"); got != 1 {
		t.Errorf("B fetched %d times, want 1", got)
	}
	if got := api.calls("C"); got != 0 {
		t.Errorf("C fetched %d times, want 0 (already cached)", got)
	}
	if got := cache.Display("A"); got != "Alpha" {
		t.Errorf("Display(A) = %q, want Alpha", got)
	}
	if got := cache.Display("B"); got != "B" {
		t.Errorf("Display(B) = %q, want raw id", got)
	}
}

func TestMergeRelationshipRecords(t *testing.T) {
	adjacent := []sanctions.EntityRecord{
		{ID: "r1", Schema: "Ownership"},
		{ID: "r2", Schema: "Family"},
	}
	nested := []sanctions.EntityRecord{
		{ID: "r2", Schema: "Associate"},
		{ID: "r3", Schema: "Membership"},
		{Schema: "Employment"},
	}

	merged := mergeRelationshipRecords(adjacent, nested)
	if len(merged) != 4 {
		t.Fatalf("merged %d records, want 4", len(merged))
	}
	if merged[1].Schema != "Family" {
		t.Errorf("duplicate id r2 resolved to %q, want adjacency copy (Family)", merged[1].Schema)
	}
}
