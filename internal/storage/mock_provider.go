package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zazmarga/tango-api/internal/quote"
)

// MockQuoteStore is a mock implementation of QuoteStore for testing.
type MockQuoteStore struct {
	mock.Mock
}

var _ QuoteStore = (*MockQuoteStore)(nil)

// CountAll is the mock implementation of CountAll.
func (m *MockQuoteStore) CountAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1) //nolint:wrapcheck
}

// GetByOffset is the mock implementation of GetByOffset.
func (m *MockQuoteStore) GetByOffset(ctx context.Context, offset int) (quote.Quote, error) {
	args := m.Called(ctx, offset)
	return args.Get(0).(quote.Quote), args.Error(1) //nolint:wrapcheck
}

// GetByID is the mock implementation of GetByID.
func (m *MockQuoteStore) GetByID(ctx context.Context, id int64) (quote.Quote, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(quote.Quote), args.Error(1) //nolint:wrapcheck
}

// Insert is the mock implementation of Insert.
func (m *MockQuoteStore) Insert(ctx context.Context, n quote.NewQuote) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1) //nolint:wrapcheck
}

// UpdateFields is the mock implementation of UpdateFields.
func (m *MockQuoteStore) UpdateFields(ctx context.Context, id int64, patch quote.Patch) (quote.Quote, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(quote.Quote), args.Error(1) //nolint:wrapcheck
}

// Migrate is the mock implementation of Migrate.
func (m *MockQuoteStore) Migrate(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	applied, _ := args.Get(0).([]string)
	return applied, args.Error(1) //nolint:wrapcheck
}

// Close records the call.
func (m *MockQuoteStore) Close() {
	m.Called()
}
