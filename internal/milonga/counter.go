package milonga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/zazmarga/tango-api/internal/metrics"
)

// DefaultWindow is how long a successful refresh is served without refetching.
const DefaultWindow = 30 * time.Minute

// Config controls the counter.
type Config struct {
	URL       string
	Window    time.Duration
	UTCOffset time.Duration
}

// Counter serves the number of milongas running today, refreshing it from
// the listing page when the cached value is older than the window.
type Counter struct {
	cfg     Config
	fetcher Fetcher
	clock   RegionalClock
	logger  *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached CachedCount
}

// NewCounter builds a Counter with an empty cache.
func NewCounter(cfg Config, fetcher Fetcher, clock Clock, logger *zap.Logger) *Counter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		cfg:     cfg,
		fetcher: fetcher,
		clock:   NewRegionalClock(clock, cfg.UTCOffset),
		logger:  logger,
	}
}

// Count returns the cached count, refreshing it first when stale. It never
// fails: on a failed refresh the previous count (or zero) is returned.
func (c *Counter) Count(ctx context.Context) int {
	if c.state(c.clock.Now()) == StateStale {
		// Refresh errors are already logged and counted.
		_ = c.refresh(ctx)
	}
	return c.Cached().Count
}

// Warm runs a refresh if the cache is stale and reports its error, if any.
func (c *Counter) Warm(ctx context.Context) error {
	if c.state(c.clock.Now()) == StateFresh {
		return nil
	}
	return c.refresh(ctx)
}

// Cached returns a copy of the stored count.
func (c *Counter) Cached() CachedCount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cached
}

// Snapshot reports the stored count together with its freshness.
func (c *Counter) Snapshot() Status {
	cached := c.Cached()
	st := Status{
		Count:  cached.Count,
		State:  c.state(c.clock.Now()).String(),
		Source: c.cfg.URL,
	}
	if !cached.RefreshedAt.IsZero() {
		ts := cached.RefreshedAt
		st.RefreshedAt = &ts
	}
	return st
}

func (c *Counter) state(now time.Time) State {
	cached := c.Cached()
	if cached.RefreshedAt.IsZero() || now.Sub(cached.RefreshedAt) > c.cfg.Window {
		return StateStale
	}
	return StateFresh
}

// refresh collapses concurrent stale callers into a single upstream fetch.
// The fetch is detached from the caller's cancellation; the fetcher bounds it.
func (c *Counter) refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		now := c.clock.Now()
		if c.state(now) == StateFresh {
			return nil, nil
		}
		return nil, c.refreshAt(ctx, now)
	})
	return err
}

func (c *Counter) refreshAt(ctx context.Context, now time.Time) error {
	body, err := c.fetcher.Fetch(ctx, c.cfg.URL)
	if err != nil {
		outcome := "transport"
		if errors.Is(err, ErrUpstreamTimeout) {
			outcome = "timeout"
		}
		metrics.ObserveMilongaRefresh(outcome)
		c.logger.Warn("milonga refresh failed, keeping previous count",
			zap.String("outcome", outcome),
			zap.Int("count", c.Cached().Count),
			zap.Error(err),
		)
		return fmt.Errorf("fetch listing: %w", err)
	}

	res, err := Extract(body, now)
	if err != nil {
		metrics.ObserveMilongaRefresh("parse")
		c.logger.Warn("milonga listing unreadable, keeping previous count", zap.Error(err))
		return fmt.Errorf("extract events: %w", err)
	}
	metrics.AddMalformedRecords(res.Malformed)

	// Stamped with the instant "today" was evaluated at, so the window and
	// the counted day refer to the same moment.
	c.mu.Lock()
	c.cached = CachedCount{Count: res.Count, RefreshedAt: now.UTC()}
	c.mu.Unlock()

	metrics.ObserveMilongaRefresh("success")
	metrics.SetMilongasNow(res.Count)
	c.logger.Info("milonga count refreshed",
		zap.Int("count", res.Count),
		zap.Int("malformed", res.Malformed),
		zap.Strings("names", res.Names),
	)
	return nil
}
