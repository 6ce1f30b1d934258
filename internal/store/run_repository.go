package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// RunRepository implements contracts.RunRepository on pgxpool.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Save persists one pipeline run record.
func (r *RunRepository) Save(ctx context.Context, run *contracts.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs
			(id, threshold, seed, asset_count, edge_count, communities,
			 stage_reached, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Threshold, run.Seed, run.AssetCount, run.EdgeCount,
		run.Communities, run.StageReached, run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save pipeline run %s: %w", run.ID, err)
	}
	return nil
}

// GetRecent returns the latest runs, newest first.
func (r *RunRepository) GetRecent(ctx context.Context, limit int) ([]*contracts.PipelineRun, error) {
	query := `
		SELECT id, threshold, seed, asset_count, edge_count, communities,
		       stage_reached, error, started_at, finished_at
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []*contracts.PipelineRun
	for rows.Next() {
		var run contracts.PipelineRun
		if err := rows.Scan(
			&run.ID, &run.Threshold, &run.Seed, &run.AssetCount, &run.EdgeCount,
			&run.Communities, &run.StageReached, &run.Error, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pipeline run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
