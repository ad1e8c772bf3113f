package graph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/attested/dossier/pkg/logger"
)

// resolveCaptions fetches captions for every id not yet present in cache.
// Lookups run concurrently and fail independently: an id whose fetch fails
// stays unresolved and later falls back to its raw form. Each unresolved id
// is attempted exactly once per call.
func (e *Enricher) resolveCaptions(ctx context.Context, ids []string, cache CaptionCache) {
	var pending []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] || cache.Has(id) {
			continue
		}
		seen[id] = true
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return
	}

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallel)

	for _, id := range pending {
		group.Go(func() error {
			record, err := e.api.GetEntity(ctx, id)
			if err != nil {
				logger.Debug("[Enrich] Caption lookup failed, falling back to raw id", "id", id, "err", err)
				return nil
			}
			if record.Caption == "" {
				return nil
			}
			mu.Lock()
			cache.Seed(id, record.Caption)
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes completion.
	_ = group.Wait()
}
