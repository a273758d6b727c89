package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/cache"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/util"
	"github.com/ppiankov/freebase2wikidata/internal/worker"
)

const maxResponseBytes = 32 << 20

// Client fetches the mapping document, property datatypes and entities.
// Every request waits on the rate limiter; wikitext and datatype responses are cached.
type Client struct {
	cfg        model.WikidataConfig
	httpClient *http.Client
	cache      cache.Cache
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	workers    int
}

// NewClient creates a client. A nil cache disables caching and a nil robots
// checker skips robots.txt checks.
func NewClient(cfg model.WikidataConfig, workers int, c cache.Cache, limiter *worker.Limiter, robots *util.RobotsChecker) *Client {
	if c == nil {
		c = cache.NoopCache{}
	}
	if limiter == nil {
		limiter = worker.NewLimiter(model.RateLimitConfig{})
	}
	if workers <= 0 {
		workers = 1
	}
	return &Client{
		cfg:        cfg,
		httpClient: util.NewHTTPClient(cfg),
		cache:      c,
		limiter:    limiter,
		robots:     robots,
		workers:    workers,
	}
}

// MappingWikitext returns the raw wikitext of the property mapping page
func (c *Client) MappingWikitext(ctx context.Context) (string, error) {
	pageURL := c.cfg.MappingPageURL
	key := cache.Key("wikitext", pageURL)
	if body, ok := c.cache.Get(key); ok {
		return string(body), nil
	}

	if c.robots != nil && c.cfg.RespectRobots {
		if err := c.robots.Check(ctx, pageURL); err != nil {
			return "", fmt.Errorf("mapping page: %w", err)
		}
	}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("mapping page: %w", err)
	}
	if err := c.cache.Set(key, body, 0); err != nil {
		slog.Warn("caching mapping page failed", "error", err)
	}
	return string(body), nil
}

// PropertyTypes returns the datatype of every property id found
func (c *Client) PropertyTypes(ctx context.Context, pids []string) (map[string]model.ValueType, error) {
	processor := worker.NewBatchProcessor(c, c.workers, c.cfg.BucketSize)
	values, err := processor.Process(ctx, pids)

	types := make(map[string]model.ValueType, len(values))
	for pid, datatype := range values {
		types[pid] = model.ValueType(datatype)
	}
	if err != nil {
		return types, fmt.Errorf("property types: %w", err)
	}
	return types, nil
}

// FetchBucket implements worker.BucketFetcher with one wbgetentities call
// returning the datatype of each property
func (c *Client) FetchBucket(ctx context.Context, ids []string) (map[string]string, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {strings.Join(ids, "|")},
		"props":  {"datatype"},
		"format": {"json"},
	}
	apiURL := c.cfg.APIURL + "?" + params.Encode()

	key := cache.Key("datatypes", apiURL)
	body, cached := c.cache.Get(key)
	if !cached {
		var err error
		if body, err = c.get(ctx, apiURL); err != nil {
			return nil, err
		}
	}

	resp, err := decodeEntities(body)
	if err != nil {
		return nil, err
	}
	if !cached {
		if err := c.cache.Set(key, body, 0); err != nil {
			slog.Warn("caching datatypes failed", "error", err)
		}
	}

	datatypes := make(map[string]string, len(resp.Entities))
	for id, e := range resp.Entities {
		if e.Missing == nil && e.DataType != "" {
			datatypes[id] = e.DataType
		}
	}
	return datatypes, nil
}

// Entity returns the current claims and revision of an entity. It is never cached.
func (c *Client) Entity(ctx context.Context, id string) (*Entity, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {id},
		"props":  {"info|claims"},
		"format": {"json"},
	}
	body, err := c.get(ctx, c.cfg.APIURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}

	resp, err := decodeEntities(body)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}
	for _, e := range resp.Entities {
		if e.Missing != nil {
			break
		}
		return &e, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrEntityNotFound, id)
}

func decodeEntities(body []byte) (*entitiesResponse, error) {
	var resp entitiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		if resp.Error.Code == "no-such-entity" {
			return nil, fmt.Errorf("%w: %s", model.ErrEntityNotFound, resp.Error.Info)
		}
		return nil, fmt.Errorf("api error %s: %s", resp.Error.Code, resp.Error.Info)
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
