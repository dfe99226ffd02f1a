package milonga

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUpstreamTimeout reports that the listing page did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamTransport reports any other fetch failure, including non-2xx statuses.
	ErrUpstreamTransport = errors.New("upstream transport error")
	// ErrMalformedRecord marks a single structured-data record that could not be used.
	ErrMalformedRecord = errors.New("malformed record")
)

// DanceEventType is the schema.org type counted by the extractor.
const DanceEventType = "DanceEvent"

// Fetcher retrieves the raw markup of the listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// EventRecord is one DanceEvent found in the page's linked data.
type EventRecord struct {
	Name  string
	Start time.Time
	Type  string
}

// CachedCount is the last successfully computed count. A zero RefreshedAt
// means no refresh has succeeded yet.
type CachedCount struct {
	Count       int
	RefreshedAt time.Time
}

// State tells whether the cached count may still be served as is.
type State int

const (
	// StateStale means the next Count call refreshes from upstream.
	StateStale State = iota
	// StateFresh means the cached count is inside its validity window.
	StateFresh
)

func (s State) String() string {
	if s == StateFresh {
		return "fresh"
	}
	return "stale"
}

// Status is a point-in-time view of the counter for diagnostics.
type Status struct {
	Count       int        `json:"milongas_now"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	State       string     `json:"state"`
	Source      string     `json:"source"`
}
