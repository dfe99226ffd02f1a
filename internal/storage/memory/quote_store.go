// Package memory keeps quotes in process memory for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/zazmarga/tango-api/internal/quote"
)

// QuoteStore provides an in-memory quote.Store. Rows are kept in id order.
type QuoteStore struct {
	mu     sync.RWMutex
	rows   []quote.Quote
	nextID int64
}

var _ quote.Store = (*QuoteStore)(nil)

// NewQuoteStore constructs an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{}
}

// Close is a no-op.
func (s *QuoteStore) Close() {}

// Migrate is a no-op; memory needs no schema.
func (s *QuoteStore) Migrate(context.Context) ([]string, error) {
	return nil, nil
}

// CountAll returns the number of stored quotes.
func (s *QuoteStore) CountAll(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// GetByOffset returns the quote at position offset.
func (s *QuoteStore) GetByOffset(_ context.Context, offset int) (quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 || offset >= len(s.rows) {
		return quote.Quote{}, quote.ErrNotFound
	}
	return clone(s.rows[offset]), nil
}

// GetByID returns the quote with the given id.
func (s *QuoteStore) GetByID(_ context.Context, id int64) (quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index(id)
	if !ok {
		return quote.Quote{}, quote.ErrNotFound
	}
	return clone(s.rows[i]), nil
}

// Insert stores a new quote and returns its id.
func (s *QuoteStore) Insert(_ context.Context, n quote.NewQuote) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows = append(s.rows, clone(quote.Quote{
		ID:        s.nextID,
		QuoteUA:   n.QuoteUA,
		QuoteES:   n.QuoteES,
		QuoteEN:   n.QuoteEN,
		Code:      n.Code,
		CommentUA: n.CommentUA,
		CommentES: n.CommentES,
		CommentEN: n.CommentEN,
	}))
	return s.nextID, nil
}

// UpdateFields applies patch to the stored row and returns the result.
func (s *QuoteStore) UpdateFields(_ context.Context, id int64, patch quote.Patch) (quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index(id)
	if !ok {
		return quote.Quote{}, quote.ErrNotFound
	}
	s.rows[i] = patch.Apply(s.rows[i])
	return clone(s.rows[i]), nil
}

func (s *QuoteStore) index(id int64) (int, bool) {
	for i, q := range s.rows {
		if q.ID == id {
			return i, true
		}
	}
	return 0, false
}

// clone detaches the optional comments so callers cannot mutate stored rows.
func clone(q quote.Quote) quote.Quote {
	q.CommentUA = copyPtr(q.CommentUA)
	q.CommentES = copyPtr(q.CommentES)
	q.CommentEN = copyPtr(q.CommentEN)
	return q
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
