package collyfetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/zazmarga/tango-api/internal/milonga"
)

func TestFetchReturnsBodyWithPooledUserAgent(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		agents []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		_, _ = w.Write([]byte("<html>milongas</html>"))
	}))
	defer ts.Close()

	f := New(Config{Timeout: time.Second, Rand: rand.New(rand.NewPCG(7, 11))})
	require.Contains(t, DefaultUserAgents, f.UserAgent())

	for i := 0; i < 2; i++ {
		body, err := f.Fetch(context.Background(), ts.URL+"/milongas")
		require.NoError(t, err)
		require.Equal(t, "<html>milongas</html>", string(body))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{f.UserAgent(), f.UserAgent()}, agents)
}

func TestFetchNon2xxIsTransportError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := New(Config{Timeout: time.Second}).Fetch(context.Background(), ts.URL)
	require.ErrorIs(t, err, milonga.ErrUpstreamTransport)
	require.NotErrorIs(t, err, milonga.ErrUpstreamTimeout)
	require.Contains(t, err.Error(), "status 403")
}

func TestFetchTimeoutIsClassified(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	_, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), ts.URL)
	require.ErrorIs(t, err, milonga.ErrUpstreamTimeout)
}

func TestFetchHonoursContextDeadline(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := New(Config{Timeout: 5 * time.Second}).Fetch(ctx, ts.URL)
	require.ErrorIs(t, err, milonga.ErrUpstreamTimeout)
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(Config{Timeout: time.Second}).Fetch(context.Background(), url)
	require.ErrorIs(t, err, milonga.ErrUpstreamTransport)
}

func TestNewClampsLimits(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxConns: 500, UserAgents: []string{"only-agent"}})
	require.Equal(t, "only-agent", f.UserAgent())
	require.Equal(t, defaultTimeout, f.timeout)

	transport := newHTTPTransport(defaultMaxConns)
	require.Equal(t, 20, transport.MaxConnsPerHost)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	var (
		body     []byte
		fetchErr error
	)
	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &body, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("body")})
	require.Equal(t, "body", string(body))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("Bad Gateway"))
	require.EqualError(t, fetchErr, "status 502: Bad Gateway")

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
