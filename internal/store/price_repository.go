// Package store implements the Postgres-backed repositories for price
// histories and pipeline run records.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository on pgxpool.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetSeries retrieves the ordered close-price series for one symbol.
func (r *PriceRepository) GetSeries(ctx context.Context, symbol string, from, to time.Time) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, close_price
		FROM daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	series := &contracts.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var point contracts.PricePoint
		if err := rows.Scan(&point.Timestamp, &point.Close); err != nil {
			return nil, fmt.Errorf("scan price row for %s: %w", symbol, err)
		}
		series.Points = append(series.Points, point)
	}
	return series, rows.Err()
}

// GetSeriesBatch retrieves series for many symbols, dropping symbols
// with no stored data.
func (r *PriceRepository) GetSeriesBatch(ctx context.Context, symbols []string, from, to time.Time) ([]*contracts.PriceSeries, error) {
	var result []*contracts.PriceSeries
	for _, symbol := range symbols {
		series, err := r.GetSeries(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		if series.Len() == 0 {
			continue
		}
		result = append(result, series)
	}
	return result, nil
}

// SaveSeries upserts a full price series in one batch.
func (r *PriceRepository) SaveSeries(ctx context.Context, series *contracts.PriceSeries) error {
	query := `
		INSERT INTO daily_prices (symbol, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date)
		DO UPDATE SET close_price = EXCLUDED.close_price
	`

	batch := &pgx.Batch{}
	for _, point := range series.Points {
		batch.Queue(query, series.Symbol, point.Timestamp, point.Close)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range series.Points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save prices for %s: %w", series.Symbol, err)
		}
	}
	return nil
}

// HasSeries reports whether any prices are stored for the symbol in the
// range. Used by the fetcher to skip already-downloaded symbols.
func (r *PriceRepository) HasSeries(ctx context.Context, symbol string, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM daily_prices
			WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, symbol, from, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("check prices for %s: %w", symbol, err)
	}
	return exists, nil
}
