package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PriceRepository is the persistence boundary for daily close prices.
type PriceRepository interface {
	GetSeries(ctx context.Context, symbol string, from, to time.Time) (*PriceSeries, error)
	GetSeriesBatch(ctx context.Context, symbols []string, from, to time.Time) ([]*PriceSeries, error)
	SaveSeries(ctx context.Context, series *PriceSeries) error
	HasSeries(ctx context.Context, symbol string, from, to time.Time) (bool, error)
}

// PipelineRun records one execution of the analysis pipeline.
type PipelineRun struct {
	ID           uuid.UUID `json:"id"`
	Threshold    float64   `json:"threshold"`
	Seed         int64     `json:"seed"`
	AssetCount   int       `json:"asset_count"`
	EdgeCount    int       `json:"edge_count"`
	Communities  int       `json:"communities"`
	StageReached string    `json:"stage_reached"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// RunRepository is the persistence boundary for pipeline run records.
type RunRepository interface {
	Save(ctx context.Context, run *PipelineRun) error
	GetRecent(ctx context.Context, limit int) ([]*PipelineRun, error)
}
