package graph

// CaptionCache maps entity ids to display captions for the duration of one
// enrichment call. It is an explicit value threaded through the engine, not
// long-lived state, so resolution stays deterministic and testable.
type CaptionCache map[string]string

// Seed records a caption for id. The first writer wins: conflicting
// embedded captions for the same id across relationship records must not
// flip results mid-call. Empty ids and captions are ignored.
func (c CaptionCache) Seed(id, caption string) {
	if id == "" || caption == "" {
		return
	}
	if _, ok := c[id]; ok {
		return
	}
	c[id] = caption
}

// Has reports whether a caption is already known for id.
func (c CaptionCache) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// Display returns the caption for id, falling back to the raw id when no
// caption was resolved.
func (c CaptionCache) Display(id string) string {
	if caption, ok := c[id]; ok {
		return caption
	}
	return id
}
