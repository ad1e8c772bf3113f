package sanctions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/attested/dossier/pkg/logger"
)

const defaultMinRequestInterval = 100 * time.Millisecond

// Client talks to an OpenSanctions-compatible screening API. All requests
// share a minimum inter-request spacing: concurrent callers observe
// serialized network timing, not serialized call completion.
//
// A Client should be created with NewClient and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     func() string
	httpClient *http.Client
	interval   time.Duration
	maxRetries int

	mu     sync.Mutex
	nextAt time.Time
}

// NewClientParams configures a Client.
//
// APIKey may be empty for unauthenticated access. APIKeyFunc takes
// precedence over APIKey and is read at call time, so a caller rotating the
// key affects subsequent requests only.
type NewClientParams struct {
	BaseURL            string
	APIKey             string
	APIKeyFunc         func() string
	MinRequestInterval time.Duration
	MaxRetries         int
	HTTPClient         *http.Client
}

func NewClient(params NewClientParams) *Client {
	keyFn := params.APIKeyFunc
	if keyFn == nil {
		key := params.APIKey
		keyFn = func() string { return key }
	}

	interval := params.MinRequestInterval
	if interval <= 0 {
		interval = defaultMinRequestInterval
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		apiKey:     keyFn,
		httpClient: httpClient,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// await blocks until this call's reserved slot in the request schedule. The
// slot is reserved under the lock, the waiting happens outside it, so
// overlapping calls stack up interval-spaced slots instead of queueing on
// each other's round trips.
func (c *Client) await(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.nextAt
	if slot.Before(now) {
		slot = now
	}
	c.nextAt = slot.Add(c.interval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// get issues one logical GET, reissuing rate-limited and network failures
// up to maxRetries attempts. Every attempt goes through the rate limiter.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := c.getOnce(ctx, path, query, out)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.await(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &APIError{Kind: KindInvalidRequest, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if key := c.apiKey(); key != "" {
		req.Header.Set("Authorization", "ApiKey "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Kind: KindNetworkUnreachable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetworkUnreachable, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: snippet(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindUnknownFailure, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// Search queries the default search endpoint.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	query := url.Values{}
	query.Set("q", params.Query)
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Schema != "" {
		query.Set("schema", params.Schema)
	}
	for _, v := range params.Datasets {
		query.Add("dataset", v)
	}
	for _, v := range params.Topics {
		query.Add("topics", v)
	}
	for _, v := range params.Countries {
		query.Add("countries", v)
	}

	result := new(SearchResult)
	if err := c.get(ctx, "/search/default", query, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetEntity fetches a single entity record by id.
func (c *Client) GetEntity(ctx context.Context, id string) (*EntityRecord, error) {
	record := new(EntityRecord)
	if err := c.get(ctx, "/entities/"+url.PathEscape(id), nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// adjacentResponse is the documented shape of the adjacency endpoint:
// relationship records grouped by the property name they appear under.
type adjacentResponse struct {
	Entity   EntityRecord                `json:"entity"`
	Adjacent map[string]adjacentPropList `json:"adjacent"`
}

type adjacentPropList struct {
	Results []EntityRecord `json:"results"`
}

// GetAdjacent fetches the relationship records directly adjacent to id and
// flattens the per-property grouping into one sequence. Adjacency is
// best-effort: any failure or unexpected response shape is logged and
// yields an empty result, never an error.
func (c *Client) GetAdjacent(ctx context.Context, id string, limit int) []EntityRecord {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var raw json.RawMessage
	if err := c.get(ctx, "/entities/"+url.PathEscape(id)+"/adjacent", query, &raw); err != nil {
		logger.Debug("[Sanctions] Adjacency fetch failed, treating as empty", "id", id, "err", err)
		return nil
	}

	var grouped adjacentResponse
	if err := json.Unmarshal(raw, &grouped); err == nil && len(grouped.Adjacent) > 0 {
		var records []EntityRecord
		for _, group := range grouped.Adjacent {
			records = append(records, group.Results...)
		}
		return records
	}

	// Fallback shapes some deployments return: {"results": [...]} or a
	// bare array.
	var wrapped adjacentPropList
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Results) > 0 {
		return wrapped.Results
	}
	var flat []EntityRecord
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}

	logger.Debug("[Sanctions] Unrecognized adjacency response shape, treating as empty", "id", id)
	return nil
}

// Catalog fetches the dataset catalog. The payload is passed through
// unprocessed.
func (c *Client) Catalog(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/catalog", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
