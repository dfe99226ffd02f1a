package quote

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

// RandomSource picks an offset in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// AddResult reports the id of a new quote and the store size after insert.
type AddResult struct {
	ID    int64
	Total int
}

// Service implements the quote use cases on top of a Store.
type Service struct {
	store  Store
	rnd    RandomSource
	logger *zap.Logger
}

// NewService builds a Service. A nil rnd uses math/rand/v2.
func NewService(store Store, rnd RandomSource, logger *zap.Logger) *Service {
	if rnd == nil {
		rnd = globalRand{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, rnd: rnd, logger: logger}
}

// Random returns a uniformly chosen quote, or ErrEmptyStore.
func (s *Service) Random(ctx context.Context) (Quote, error) {
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("count quotes: %w", err)
	}
	if total == 0 {
		return Quote{}, ErrEmptyStore
	}
	q, err := s.store.GetByOffset(ctx, s.rnd.IntN(total))
	if errors.Is(err, ErrNotFound) {
		// The table shrank between the two reads.
		return Quote{}, ErrEmptyStore
	}
	if err != nil {
		return Quote{}, fmt.Errorf("get quote by offset: %w", err)
	}
	return q, nil
}

// Get returns the quote with the given id.
func (s *Service) Get(ctx context.Context, id int64) (Quote, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote %d: %w", id, err)
	}
	return q, nil
}

// Add validates and stores a new quote.
func (s *Service) Add(ctx context.Context, n NewQuote) (AddResult, error) {
	if err := n.Validate(); err != nil {
		return AddResult{}, err
	}
	id, err := s.store.Insert(ctx, n)
	if err != nil {
		return AddResult{}, fmt.Errorf("insert quote: %w", err)
	}
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return AddResult{}, fmt.Errorf("count quotes: %w", err)
	}
	s.logger.Info("quote added", zap.Int64("id", id), zap.Int("total", total))
	return AddResult{ID: id, Total: total}, nil
}

// Update applies only the fields present in patch.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (Quote, error) {
	if err := patch.Validate(); err != nil {
		return Quote{}, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}
	q, err := s.store.UpdateFields(ctx, id, patch)
	if err != nil {
		return Quote{}, fmt.Errorf("update quote %d: %w", id, err)
	}
	columns := make([]string, 0, 7)
	for _, f := range patch.Fields() {
		columns = append(columns, f.Column)
	}
	s.logger.Info("quote updated", zap.Int64("id", id), zap.Strings("fields", columns))
	return q, nil
}

// Import adds every quote in order and stops at the first failure. It
// returns how many quotes were stored.
func (s *Service) Import(ctx context.Context, quotes []NewQuote) (int, error) {
	for i, n := range quotes {
		if err := n.Validate(); err != nil {
			return i, fmt.Errorf("quote #%d: %w", i+1, err)
		}
		if _, err := s.store.Insert(ctx, n); err != nil {
			return i, fmt.Errorf("insert quote #%d: %w", i+1, err)
		}
	}
	s.logger.Info("quotes imported", zap.Int("count", len(quotes)))
	return len(quotes), nil
}
