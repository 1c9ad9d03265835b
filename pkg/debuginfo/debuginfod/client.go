// Package debuginfod implements the C1 component: a client that checks
// whether a build ID's debug information is already resolvable on a
// debuginfod mirror, so the coordinator can skip asking clients to upload
// something we can already serve from there.
package debuginfod

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/parca-dev/debuginfo-ingest/internal/logger"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
)

// Client checks a debuginfod mirror for the existence of a build ID's
// debug information. Results are cached and concurrent lookups for the
// same build ID are collapsed via singleflight, so a burst of agents
// discovering the same new binary does not turn into a burst of requests
// against the mirror.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *cache.Cache
	negativeTTL time.Duration
	group       singleflight.Group
}

// Config controls Client construction.
type Config struct {
	// BaseURL is the debuginfod mirror's base URL, e.g. "https://debuginfod.example.com".
	BaseURL string

	// Timeout bounds a single HTTP request to the mirror.
	Timeout time.Duration

	// PositiveTTL is how long a "found" result is cached.
	PositiveTTL time.Duration

	// NegativeTTL is how long a "not found" result is cached. Kept shorter
	// than PositiveTTL since a mirror catching up on a recent build is more
	// likely than a previously-published build disappearing.
	NegativeTTL time.Duration
}

// DefaultConfig returns sane defaults: a 5s per-request timeout, a 10
// minute cache for hits, and a 30 second cache for misses.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		PositiveTTL: 10 * time.Minute,
		NegativeTTL: 30 * time.Second,
	}
}

// New creates a Client.
func New(cfg Config) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cache:       cache.New(cfg.PositiveTTL, cfg.PositiveTTL*2),
		negativeTTL: cfg.NegativeTTL,
	}
}

// Exists reports whether buildID's debug information is already resolvable
// on the configured mirror. It returns the mirror URL the bytes were found
// at, or the empty string if the mirror does not have them. A cache hit
// never blocks on the network.
func (c *Client) Exists(ctx context.Context, buildID debuginfo.BuildID) (string, error) {
	key := string(buildID)

	if cached, ok := c.cache.Get(key); ok {
		logger.DebugCtx(ctx, "debuginfod cache hit", logger.BuildID(key), logger.CacheHit(true))
		return cached.(string), nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		return c.lookup(ctx, key)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (c *Client) lookup(ctx context.Context, buildID string) (string, error) {
	url := fmt.Sprintf("%s/buildid/%s/debuginfo", c.baseURL, buildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("building debuginfod request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying debuginfod: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.cache.Set(buildID, "", c.negativeTTL)
		return "", nil
	}

	c.cache.Set(buildID, url, cache.DefaultExpiration)
	return url, nil
}
