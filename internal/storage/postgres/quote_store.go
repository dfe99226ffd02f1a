// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zazmarga/tango-api/internal/quote"
)

const quoteColumns = `id, quote_ua, quote_es, quote_en, code, comment_ua, comment_es, comment_en`

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// QuoteStore keeps quotes in the tango_code table.
type QuoteStore struct {
	pool pool
}

var _ quote.Store = (*QuoteStore)(nil)

// NewQuoteStore connects a pool using cfg.
func NewQuoteStore(ctx context.Context, cfg Config) (*QuoteStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &QuoteStore{pool: p}, nil
}

// NewQuoteStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewQuoteStoreWithPool(p pool) (*QuoteStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &QuoteStore{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *QuoteStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CountAll returns the number of stored quotes.
func (s *QuoteStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tango_code`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}

// GetByOffset returns the quote at position offset when ordered by id.
func (s *QuoteStore) GetByOffset(ctx context.Context, offset int) (quote.Quote, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM tango_code ORDER BY id LIMIT 1 OFFSET $1`, offset)
	return scanQuote(row)
}

// GetByID returns the quote with the given id.
func (s *QuoteStore) GetByID(ctx context.Context, id int64) (quote.Quote, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM tango_code WHERE id = $1`, id)
	return scanQuote(row)
}

// Insert stores a new quote and returns its id.
func (s *QuoteStore) Insert(ctx context.Context, n quote.NewQuote) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO tango_code (quote_ua, quote_es, quote_en, code, comment_ua, comment_es, comment_en)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		n.QuoteUA, n.QuoteES, n.QuoteEN, n.Code, n.CommentUA, n.CommentES, n.CommentEN,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	return id, nil
}

// UpdateFields writes only the columns set in patch and returns the new row.
func (s *QuoteStore) UpdateFields(ctx context.Context, id int64, patch quote.Patch) (quote.Quote, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return s.GetByID(ctx, id)
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, i+1))
		args = append(args, f.Arg())
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tango_code SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), quoteColumns)
	return scanQuote(s.pool.QueryRow(ctx, query, args...))
}

func scanQuote(row pgx.Row) (quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(
		&q.ID,
		&q.QuoteUA,
		&q.QuoteES,
		&q.QuoteEN,
		&q.Code,
		&q.CommentUA,
		&q.CommentES,
		&q.CommentEN,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quote.Quote{}, quote.ErrNotFound
		}
		return quote.Quote{}, fmt.Errorf("scan quote: %w", err)
	}
	return q, nil
}
