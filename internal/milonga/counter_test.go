package milonga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const listingURL = "https://listing.test/buenos-aires/milongas"

func TestCounterFirstFailureReturnsZero(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: fmt.Errorf("dial: %w", ErrUpstreamTransport)}
	counter := newTestCounter(fetcher, newFakeClock())

	require.Equal(t, 0, counter.Count(context.Background()))
	require.True(t, counter.Cached().RefreshedAt.IsZero())
	require.Equal(t, "stale", counter.Snapshot().State)
}

func TestCounterServesWithinWindowWithOneFetch(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{body: listing(clk.Now(), 2)}
	counter := newTestCounter(fetcher, clk)

	require.Equal(t, 2, counter.Count(context.Background()))
	clk.Advance(10 * time.Minute)
	require.Equal(t, 2, counter.Count(context.Background()))
	require.Equal(t, 1, fetcher.Calls())
	require.Equal(t, "fresh", counter.Snapshot().State)
}

func TestCounterRefreshesAfterWindow(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{body: listing(clk.Now(), 2)}
	counter := newTestCounter(fetcher, clk)
	require.Equal(t, 2, counter.Count(context.Background()))

	clk.Advance(30 * time.Minute)
	fetcher.SetBody(listing(clk.Now(), 5))
	require.Equal(t, 2, counter.Count(context.Background()), "exactly at the window edge the value is still fresh")

	clk.Advance(time.Second)
	require.Equal(t, 5, counter.Count(context.Background()))
	require.Equal(t, 2, fetcher.Calls())
}

func TestCounterKeepsPreviousValueOnFailure(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{body: listing(clk.Now(), 3)}
	counter := newTestCounter(fetcher, clk)
	require.Equal(t, 3, counter.Count(context.Background()))
	refreshedAt := counter.Cached().RefreshedAt

	clk.Advance(31 * time.Minute)
	fetcher.SetErr(fmt.Errorf("slow upstream: %w", ErrUpstreamTimeout))
	require.Equal(t, 3, counter.Count(context.Background()))
	require.Equal(t, refreshedAt, counter.Cached().RefreshedAt)

	// A failed refresh does not restart the window: the next call retries.
	require.Equal(t, 3, counter.Count(context.Background()))
	require.Equal(t, 3, fetcher.Calls())

	fetcher.SetErr(nil)
	fetcher.SetBody(listing(clk.Now(), 4))
	require.Equal(t, 4, counter.Count(context.Background()))
	require.Equal(t, clk.Now().UTC(), counter.Cached().RefreshedAt)
}

func TestCounterCollapsesConcurrentRefreshes(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	release := make(chan struct{})
	fetcher := &fakeFetcher{body: listing(clk.Now(), 6), gate: release}
	counter := newTestCounter(fetcher, clk)

	const callers = 8
	results := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- counter.Count(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for got := range results {
		require.Equal(t, 6, got)
	}
	require.Equal(t, 1, fetcher.Calls())
}

func TestCounterIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{body: listing(clk.Now(), 1)}
	counter := newTestCounter(fetcher, clk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, 1, counter.Count(ctx))
	require.NoError(t, fetcher.LastCtxErr())
}

func TestCounterWarm(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{err: ErrUpstreamTransport}
	counter := newTestCounter(fetcher, clk)

	err := counter.Warm(context.Background())
	require.ErrorIs(t, err, ErrUpstreamTransport)

	fetcher.SetErr(nil)
	fetcher.SetBody(listing(clk.Now(), 2))
	require.NoError(t, counter.Warm(context.Background()))
	require.NoError(t, counter.Warm(context.Background()))
	require.Equal(t, 2, fetcher.Calls())

	snap := counter.Snapshot()
	require.Equal(t, 2, snap.Count)
	require.NotNil(t, snap.RefreshedAt)
	require.Equal(t, listingURL, snap.Source)
}

func TestCounterPageWithoutLinkedData(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	fetcher := &fakeFetcher{body: []byte("<html><body>maintenance</body></html>")}
	counter := newTestCounter(fetcher, clk)

	// A page without linked data is a valid, empty listing.
	require.Equal(t, 0, counter.Count(context.Background()))
	require.False(t, counter.Cached().RefreshedAt.IsZero())
}

func TestCounterStampsEvaluationInstant(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	evaluatedAt := clk.Now().UTC()
	fetcher := &slowFetcher{clock: clk, took: 20 * time.Second, body: listing(clk.Now(), 1)}
	counter := NewCounter(Config{URL: listingURL, UTCOffset: BuenosAiresOffset}, fetcher, clk, zap.NewNop())

	require.Equal(t, 1, counter.Count(context.Background()))
	require.Equal(t, evaluatedAt, counter.Cached().RefreshedAt)
	require.Equal(t, evaluatedAt.Add(20*time.Second), clk.Now().UTC())
}

// --- helpers/fakes ---

// slowFetcher moves the clock forward as if the request took a while.
type slowFetcher struct {
	clock *fakeClock
	took  time.Duration
	body  []byte
}

func (f *slowFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.clock.Advance(f.took)
	return f.body, nil
}

func newTestCounter(fetcher Fetcher, clk Clock) *Counter {
	return NewCounter(Config{
		URL:       listingURL,
		Window:    30 * time.Minute,
		UTCOffset: BuenosAiresOffset,
	}, fetcher, clk, zap.NewNop())
}

// listing renders n DanceEvents starting on the Buenos Aires date of now,
// plus one on the previous day.
func listing(now time.Time, n int) []byte {
	day := now.In(buenosAires)
	blocks := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		start := time.Date(day.Year(), day.Month(), day.Day(), 20, i, 0, 0, buenosAires)
		blocks = append(blocks, danceEvent(fmt.Sprintf("milonga-%d", i), start.Format(time.RFC3339)))
	}
	yesterday := day.AddDate(0, 0, -1)
	blocks = append(blocks, danceEvent("yesterday", yesterday.Format(time.RFC3339)))
	return page(blocks...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeFetcher struct {
	mu         sync.Mutex
	body       []byte
	err        error
	gate       chan struct{}
	calls      int
	lastCtxErr error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.lastCtxErr = ctx.Err()
	gate := f.gate
	f.mu.Unlock()

	if url != listingURL {
		return nil, errors.New("unexpected url " + url)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(nil), f.body...), nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) LastCtxErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCtxErr
}

func (f *fakeFetcher) SetBody(body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

func (f *fakeFetcher) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
