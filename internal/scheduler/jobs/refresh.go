// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/layout"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/marketdata"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// RefreshJob re-fetches the universe's recent prices into the store and
// re-runs the analysis pipeline, persisting a run record.
type RefreshJob struct {
	client  *marketdata.Client
	prices  contracts.PriceRepository
	runs    contracts.RunRepository
	pipe    *pipeline.Pipeline
	symbols []string
	config  *config.Config
	logger  *logger.Logger
}

// NewRefreshJob creates a new refresh job over a fixed symbol universe.
func NewRefreshJob(
	client *marketdata.Client,
	prices contracts.PriceRepository,
	runs contracts.RunRepository,
	pipe *pipeline.Pipeline,
	symbols []string,
	cfg *config.Config,
	log *logger.Logger,
) *RefreshJob {
	return &RefreshJob{
		client:  client,
		prices:  prices,
		runs:    runs,
		pipe:    pipe,
		symbols: symbols,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Schedule runs after US market close, daily at 18:00.
func (j *RefreshJob) Schedule() string {
	return "0 0 18 * * *"
}

// Run fetches the last 30 days of prices, stores them, then reruns the
// pipeline over the configured analysis window.
func (j *RefreshJob) Run(ctx context.Context) error {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	histories, err := j.client.FetchHistoryBatch(ctx, j.symbols, from, to)
	if err != nil {
		return fmt.Errorf("refresh fetch: %w", err)
	}
	for _, history := range histories {
		if err := j.prices.SaveSeries(ctx, history.ToPriceSeries()); err != nil {
			return fmt.Errorf("refresh store: %w", err)
		}
	}

	analysisFrom, analysisTo, err := j.analysisWindow()
	if err != nil {
		return err
	}
	seriesSet, err := j.prices.GetSeriesBatch(ctx, j.symbols, analysisFrom, analysisTo)
	if err != nil {
		return fmt.Errorf("refresh load: %w", err)
	}

	cfg := pipeline.Config{
		Threshold:    j.config.Analysis.Threshold,
		LayoutEngine: "spring",
		Layout: layout.Params{
			Seed:           j.config.Analysis.LayoutSeed,
			Dimensions:     j.config.Analysis.LayoutDim,
			SpringConstant: j.config.Analysis.SpringConstant,
			Iterations:     j.config.Analysis.LayoutIters,
		},
	}

	started := time.Now()
	result, runErr := j.pipe.Run(seriesSet, cfg)
	finished := time.Now()

	if err := j.runs.Save(ctx, result.RunRecord(cfg, started, finished, runErr)); err != nil {
		j.logger.WithError(err).Warn("Failed to persist run record")
	}
	if runErr != nil {
		return fmt.Errorf("refresh pipeline: %w", runErr)
	}

	j.logger.WithFields(map[string]interface{}{
		"assets": result.Returns.NumAssets(),
		"edges":  result.Graph.NumEdges(),
	}).Info("Scheduled refresh complete")
	return nil
}

func (j *RefreshJob) analysisWindow() (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", j.config.MarketData.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", j.config.MarketData.StartDate, err)
	}
	to, err := time.Parse("2006-01-02", j.config.MarketData.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", j.config.MarketData.EndDate, err)
	}
	return from, to, nil
}
