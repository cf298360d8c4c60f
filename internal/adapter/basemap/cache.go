package basemap

import (
	"context"
	_ "embed"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

//go:embed fallback.geojson
var fallbackGeoJSON []byte

const (
	defaultFetchTimeout = 5 * time.Second
	defaultRetryAfter   = time.Minute
)

// CachedProvider wraps a BaseMapProvider with a TTL cache and a fallback
// chain: fresh cache, network, stale cache, embedded empty collection. It
// never returns an error, so the map always has a background to draw.
//
// A network fetch is bounded by the fetch timeout and runs outside the lock;
// callers arriving while a fetch is in flight, or within the retry-after
// window of a failed fetch, get the fallback at once.
type CachedProvider struct {
	inner        domain.BaseMapProvider
	ttl          time.Duration
	fetchTimeout time.Duration
	retryAfter   time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics

	mu        sync.Mutex
	data      []byte
	fetchedAt time.Time
	failedAt  time.Time
	fetching  bool
}

// CacheOption configures a CachedProvider.
type CacheOption func(*CachedProvider)

// WithFetchTimeout bounds one upstream fetch, retries included.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *CachedProvider) { c.fetchTimeout = d }
}

// WithRetryAfter sets how long a failed fetch suppresses new attempts.
func WithRetryAfter(d time.Duration) CacheOption {
	return func(c *CachedProvider) { c.retryAfter = d }
}

// NewCachedProvider creates a cache decorator around inner. A nil inner
// serves the embedded fallback only.
func NewCachedProvider(inner domain.BaseMapProvider, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...CacheOption) *CachedProvider {
	c := &CachedProvider{
		inner:        inner,
		ttl:          ttl,
		fetchTimeout: defaultFetchTimeout,
		retryAfter:   defaultRetryAfter,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedProvider) BoundaryGeoJSON(ctx context.Context) (domain.BaseMap, error) {
	c.mu.Lock()
	if c.data != nil && c.clock.Since(c.fetchedAt) < c.ttl {
		defer c.mu.Unlock()
		return c.serve(domain.BaseMapCache, "success", c.data), nil
	}
	if c.inner == nil {
		c.mu.Unlock()
		return c.serve(domain.BaseMapStatic, "success", fallbackGeoJSON), nil
	}
	if c.fetching || (!c.failedAt.IsZero() && c.clock.Since(c.failedAt) < c.retryAfter) {
		defer c.mu.Unlock()
		return c.fallback(), nil
	}
	c.fetching = true
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	bm, err := c.inner.BoundaryGeoJSON(fetchCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false

	if err == nil {
		c.data = bm.GeoJSON
		c.fetchedAt = c.clock.Now()
		c.failedAt = time.Time{}
		return c.serve(domain.BaseMapNetwork, "success", bm.GeoJSON), nil
	}

	c.failedAt = c.clock.Now()
	if c.data != nil {
		c.logger.Warn("basemap refresh failed, serving stale copy",
			"error", err, "age", c.clock.Since(c.fetchedAt))
	} else {
		c.logger.Warn("basemap unavailable, serving empty fallback", "error", err)
	}
	return c.fallback(), nil
}

// fallback serves the stale copy if one exists, else the embedded
// collection. c.mu must be held.
func (c *CachedProvider) fallback() domain.BaseMap {
	if c.data != nil {
		return c.serve(domain.BaseMapStale, "error", c.data)
	}
	return c.serve(domain.BaseMapStatic, "error", fallbackGeoJSON)
}

func (c *CachedProvider) serve(source domain.BaseMapSource, outcome string, data []byte) domain.BaseMap {
	c.metrics.BaseMapRequests.WithLabelValues(string(source), outcome).Inc()
	return domain.BaseMap{GeoJSON: data, Source: source}
}
