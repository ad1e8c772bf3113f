package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/sanctions"
)

// API is the slice of the screening client the enricher consumes.
// *sanctions.Client satisfies it.
type API interface {
	GetEntity(ctx context.Context, id string) (*sanctions.EntityRecord, error)
	GetAdjacent(ctx context.Context, id string, limit int) []sanctions.EntityRecord
}

// Enricher resolves an entity's one-hop relationship graph into a category
// bucket summary.
type Enricher struct {
	api           API
	adjacentLimit int
	maxParallel   int
}

type NewEnricherParams struct {
	API API

	// AdjacentLimit caps the adjacency listing size. Defaults to 200.
	AdjacentLimit int

	// MaxParallel bounds concurrent caption lookups. Defaults to 5.
	MaxParallel int
}

func NewEnricher(params NewEnricherParams) *Enricher {
	adjacentLimit := params.AdjacentLimit
	if adjacentLimit <= 0 {
		adjacentLimit = 200
	}
	maxParallel := params.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 5
	}
	return &Enricher{
		api:           params.API,
		adjacentLimit: adjacentLimit,
		maxParallel:   maxParallel,
	}
}

// EnrichedEntity is the result of one enrichment call: the primary record,
// its relationship summary, and the caption cache accumulated along the
// way (used by note rendering to display referenced entities by name).
type EnrichedEntity struct {
	Entity        *sanctions.EntityRecord
	Relationships *RelationshipSummary
	Captions      CaptionCache
}

// FetchWithRelationships fetches the entity, merges adjacency-endpoint and
// inline-embedded relationship records, classifies each relative to the
// anchor, resolves counterpart captions, and folds the results into
// category buckets.
//
// Only the primary fetch can fail the call; adjacency and caption
// resolution degrade to fewer or plainer entries.
func (e *Enricher) FetchWithRelationships(ctx context.Context, id string) (*EnrichedEntity, error) {
	var entity *sanctions.EntityRecord
	var adjacent []sanctions.EntityRecord

	// The two fetches have no data dependency on each other.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		record, err := e.api.GetEntity(groupCtx, id)
		if err != nil {
			return err
		}
		entity = record
		return nil
	})
	group.Go(func() error {
		adjacent = e.api.GetAdjacent(groupCtx, id, e.adjacentLimit)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	working := mergeRelationshipRecords(adjacent, NestedEntities(entity.Properties))
	logger.Debug("[Enrich] Merged relationship records",
		"id", id, "adjacent", len(adjacent), "working", len(working))

	cache := CaptionCache{}
	cache.Seed(entity.ID, entity.Caption)
	for i := range working {
		seedEmbeddedCaptions(&working[i], cache)
	}

	var edges []Edge
	var unresolved []string
	for i := range working {
		edge, ok := Classify(&working[i], entity.ID, cache)
		if !ok {
			continue
		}
		edges = append(edges, edge)
		if !cache.Has(edge.CounterpartID) {
			unresolved = append(unresolved, edge.CounterpartID)
		}
	}

	e.resolveCaptions(ctx, unresolved, cache)

	summary := &RelationshipSummary{}
	for _, edge := range edges {
		summary.Add(edge.Category, cache.Display(edge.CounterpartID))
	}

	return &EnrichedEntity{
		Entity:        entity,
		Relationships: summary,
		Captions:      cache,
	}, nil
}

// mergeRelationshipRecords deduplicates the two relationship sources by
// record id. The adjacency-endpoint copy wins when both sources carry the
// same id; records without an id cannot be deduplicated and are kept as-is.
func mergeRelationshipRecords(adjacent, nested []sanctions.EntityRecord) []sanctions.EntityRecord {
	merged := make([]sanctions.EntityRecord, 0, len(adjacent)+len(nested))
	seen := make(map[string]bool, len(adjacent))

	for _, rec := range adjacent {
		if rec.ID != "" {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
		}
		merged = append(merged, rec)
	}
	for _, rec := range nested {
		if rec.ID != "" {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
		}
		merged = append(merged, rec)
	}
	return merged
}
