// Package returns converts raw price histories into aligned daily-return
// columns, the first stage of the correlation pipeline.
package returns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// Aggregator turns per-asset price series into a ReturnsMatrix aligned
// on a common timestamp index. Pure: inputs are never mutated.
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a new returns aggregator.
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{logger: log}
}

// Aggregate computes percentage-change returns for every series and
// inner-joins them on timestamp. A timestamp survives only if every
// asset has a return for it; rows with any missing asset are dropped
// whole. Returns contracts.ErrInsufficientData when no asset yields a
// valid return series or when the join has zero rows.
func (a *Aggregator) Aggregate(seriesSet []*contracts.PriceSeries) (*contracts.ReturnsMatrix, error) {
	returnSeries := make(map[string]*contracts.ReturnSeries)
	var symbols []string

	for _, series := range seriesSet {
		if series == nil {
			a.logger.Warn("Skipping nil series")
			continue
		}
		rs, err := ComputeReturns(series)
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"symbol": series.Symbol,
				"error":  err.Error(),
			}).Warn("Skipping series with no computable returns")
			continue
		}
		returnSeries[series.Symbol] = rs
		symbols = append(symbols, series.Symbol)
	}

	if len(returnSeries) == 0 {
		return nil, fmt.Errorf("no valid return series: %w", contracts.ErrInsufficientData)
	}
	sort.Strings(symbols)

	timestamps := alignTimestamps(symbols, returnSeries)
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no common timestamps across %d assets: %w",
			len(symbols), contracts.ErrInsufficientData)
	}

	columns := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		byTime := make(map[time.Time]float64, len(returnSeries[symbol].Points))
		for _, p := range returnSeries[symbol].Points {
			byTime[p.Timestamp] = p.Return
		}

		col := make([]float64, len(timestamps))
		for i, ts := range timestamps {
			col[i] = byTime[ts]
		}
		columns[symbol] = col
	}

	a.logger.WithFields(map[string]interface{}{
		"assets": len(symbols),
		"rows":   len(timestamps),
	}).Info("Aggregated daily returns")

	return &contracts.ReturnsMatrix{
		Symbols:    symbols,
		Timestamps: timestamps,
		Columns:    columns,
	}, nil
}

// ComputeReturns derives the percentage-change series for one asset.
// The first observation has no predecessor and is dropped. Intervals
// with a non-positive or non-finite base price are rejected.
func ComputeReturns(series *contracts.PriceSeries) (*contracts.ReturnSeries, error) {
	if series == nil {
		return nil, fmt.Errorf("series is nil")
	}
	if len(series.Points) < 2 {
		return nil, fmt.Errorf("series needs at least 2 observations, got %d", series.Len())
	}

	points := make([]contracts.ReturnPoint, 0, len(series.Points)-1)
	for i := 1; i < len(series.Points); i++ {
		prev := series.Points[i-1].Close
		curr := series.Points[i].Close
		if prev <= 0 || math.IsNaN(prev) || math.IsNaN(curr) ||
			math.IsInf(prev, 0) || math.IsInf(curr, 0) {
			return nil, fmt.Errorf("invalid close price at index %d for %s", i, series.Symbol)
		}
		points = append(points, contracts.ReturnPoint{
			Timestamp: series.Points[i].Timestamp,
			Return:    (curr - prev) / prev,
		})
	}

	return &contracts.ReturnSeries{Symbol: series.Symbol, Points: points}, nil
}

// alignTimestamps returns the sorted intersection of all assets'
// observation timestamps.
func alignTimestamps(symbols []string, series map[string]*contracts.ReturnSeries) []time.Time {
	counts := make(map[time.Time]int)
	for _, symbol := range symbols {
		for _, p := range series[symbol].Points {
			counts[p.Timestamp]++
		}
	}

	var common []time.Time
	for ts, n := range counts {
		if n == len(symbols) {
			common = append(common, ts)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })
	return common
}
