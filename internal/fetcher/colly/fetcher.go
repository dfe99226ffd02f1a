// Package collyfetcher implements milonga.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/zazmarga/tango-api/internal/milonga"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxConns = 20
)

// DefaultUserAgents is the pool a process picks its browser identifier from.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
}

// Config controls collector behavior.
type Config struct {
	UserAgents []string
	Timeout    time.Duration
	MaxConns   int
	// Rand picks the user agent; nil uses the global source.
	Rand *rand.Rand
}

// Fetcher issues single GET requests through a shared, bounded transport.
type Fetcher struct {
	userAgent     string
	timeout       time.Duration
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. The user agent is chosen once and kept for the
// lifetime of the Fetcher.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 || maxConns > defaultMaxConns {
		maxConns = defaultMaxConns
	}
	agents := cfg.UserAgents
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	userAgent := pickUserAgent(agents, cfg.Rand)

	c := colly.NewCollector(colly.Async(false), colly.UserAgent(userAgent))
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport(maxConns))
	c.SetRequestTimeout(timeout)

	return &Fetcher{
		userAgent:     userAgent,
		timeout:       timeout,
		baseCollector: c,
	}
}

// UserAgent reports the identifier sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch executes a single HTTP GET and returns the body. Failures wrap
// milonga.ErrUpstreamTimeout or milonga.ErrUpstreamTransport.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, &body, &fetchErr)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, classify(ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			err = fetchErr
		}
		if err != nil {
			return nil, classify(err)
		}
		return body, nil
	}
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		*fetchErr = err
	})
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", milonga.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", milonga.ErrUpstreamTransport, err)
}

func pickUserAgent(agents []string, rnd *rand.Rand) string {
	if rnd != nil {
		return agents[rnd.IntN(len(agents))]
	}
	return agents[rand.IntN(len(agents))]
}

func newHTTPTransport(maxConns int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxConnsPerHost:       maxConns,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
