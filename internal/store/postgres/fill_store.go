package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/hftsim/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a new FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

const fillSelectCols = `id, symbol, side, price, size, slippage, "position", filled_at`

const fillInsertQuery = `
	INSERT INTO fills (id, symbol, side, price, size, slippage, "position", filled_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING`

func scanFillRows(rows pgx.Rows) ([]domain.Fill, error) {
	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		if err := rows.Scan(
			&f.ID, &f.Symbol, &f.Side, &f.Price,
			&f.Size, &f.Slippage, &f.Position, &f.FilledAt,
		); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// Insert persists a single fill. Duplicate IDs are silently skipped so
// at-least-once event delivery never produces duplicate rows.
func (s *FillStore) Insert(ctx context.Context, fill domain.Fill) error {
	_, err := s.pool.Exec(ctx, fillInsertQuery,
		fill.ID, fill.Symbol, fill.Side, fill.Price,
		fill.Size, fill.Slippage, fill.Position, fill.FilledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert fill %s: %w", fill.ID, err)
	}
	return nil
}

// InsertBatch inserts multiple fills efficiently using pgx Batch.
func (s *FillStore) InsertBatch(ctx context.Context, fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range fills {
		batch.Queue(fillInsertQuery,
			f.ID, f.Symbol, f.Side, f.Price,
			f.Size, f.Slippage, f.Position, f.FilledAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range fills {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert fill batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListBySymbol returns the most recent fills for a symbol, newest first.
func (s *FillStore) ListBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE symbol = $1 ORDER BY filled_at DESC`
	args := []any{symbol}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills by symbol: %w", err)
	}
	defer rows.Close()

	fills, err := scanFillRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan fills by symbol: %w", err)
	}
	return fills, nil
}

// ListBefore returns all fills filled strictly before the given time, oldest
// first, for archiving.
func (s *FillStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE filled_at < $1 ORDER BY filled_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills before: %w", err)
	}
	defer rows.Close()
	return scanFillRows(rows)
}

// DeleteBefore deletes all fills filled before the given time. Returns the
// number deleted.
func (s *FillStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fills WHERE filled_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete fills before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.FillStore = (*FillStore)(nil)
