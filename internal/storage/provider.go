// Package storage selects the quote persistence backend.
// This abstraction keeps the server independent of a specific database
// (Postgres, a local SQLite file, or process memory).
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/zazmarga/tango-api/internal/quote"
	"github.com/zazmarga/tango-api/internal/storage/memory"
	"github.com/zazmarga/tango-api/internal/storage/postgres"
	"github.com/zazmarga/tango-api/internal/storage/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// QuoteStore is a quote.Store that owns a connection and a schema.
type QuoteStore interface {
	quote.Store
	// Migrate brings the schema up to date and reports what it applied.
	Migrate(ctx context.Context) ([]string, error)
	Close()
}

// Config selects and configures the backend.
type Config struct {
	Driver          string
	DSN             string
	Path            string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg Config) (QuoteStore, error) {
	switch cfg.Driver {
	case DriverPostgres:
		s, err := postgres.NewQuoteStore(ctx, postgres.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory, "":
		return memory.NewQuoteStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
