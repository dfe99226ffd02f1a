// Package sqlite keeps quotes in a local SQLite file for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/zazmarga/tango-api/internal/quote"
)

const quoteColumns = `id, quote_ua, quote_es, quote_en, code, comment_ua, comment_es, comment_en`

const schema = `
CREATE TABLE IF NOT EXISTS tango_code (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	quote_ua TEXT NOT NULL,
	quote_es TEXT NOT NULL,
	quote_en TEXT NOT NULL,
	code TEXT NOT NULL,
	comment_ua TEXT,
	comment_es TEXT,
	comment_en TEXT
)`

// QuoteStore keeps quotes in the tango_code table of a SQLite database.
type QuoteStore struct {
	db *sql.DB
}

var _ quote.Store = (*QuoteStore)(nil)

// Open opens (creating when missing) the database file at path.
func Open(ctx context.Context, path string) (*QuoteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database.path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &QuoteStore{db: db}, nil
}

// Close releases the database handle.
func (s *QuoteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

// Migrate creates the tango_code table when it does not exist.
func (s *QuoteStore) Migrate(ctx context.Context) ([]string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tango_code'`).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if exists > 0 {
		return nil, nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create tango_code: %w", err)
	}
	return []string{"tango_code"}, nil
}

// CountAll returns the number of stored quotes.
func (s *QuoteStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tango_code`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}

// GetByOffset returns the quote at position offset when ordered by id.
func (s *QuoteStore) GetByOffset(ctx context.Context, offset int) (quote.Quote, error) {
	return scanQuote(s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM tango_code ORDER BY id LIMIT 1 OFFSET ?`, offset))
}

// GetByID returns the quote with the given id.
func (s *QuoteStore) GetByID(ctx context.Context, id int64) (quote.Quote, error) {
	return scanQuote(s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM tango_code WHERE id = ?`, id))
}

// Insert stores a new quote and returns its id.
func (s *QuoteStore) Insert(ctx context.Context, n quote.NewQuote) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO tango_code (quote_ua, quote_es, quote_en, code, comment_ua, comment_es, comment_en)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.QuoteUA, n.QuoteES, n.QuoteEN, n.Code, n.CommentUA, n.CommentES, n.CommentEN)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read quote id: %w", err)
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
	for _, f := range fields {
		sets = append(sets, f.Column+" = ?")
		args = append(args, f.Arg())
	}
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE tango_code SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("update quote: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quote.Quote{}, quote.ErrNotFound
	}
	q, err := scanQuote(tx.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM tango_code WHERE id = ?`, id))
	if err != nil {
		return quote.Quote{}, err
	}
	if err := tx.Commit(); err != nil {
		return quote.Quote{}, fmt.Errorf("commit update: %w", err)
	}
	return q, nil
}

func scanQuote(row *sql.Row) (quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(&q.ID, &q.QuoteUA, &q.QuoteES, &q.QuoteEN, &q.Code, &q.CommentUA, &q.CommentES, &q.CommentEN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Quote{}, quote.ErrNotFound
		}
		return quote.Quote{}, fmt.Errorf("scan quote: %w", err)
	}
	return q, nil
}
