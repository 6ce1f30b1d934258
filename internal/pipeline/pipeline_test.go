package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// seriesFromCloses builds a price series with one observation per day.
func seriesFromCloses(symbol string, closes []float64) *contracts.PriceSeries {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &contracts.PriceSeries{Symbol: symbol}
	for i, c := range closes {
		series.Points = append(series.Points, contracts.PricePoint{
			Timestamp: base.AddDate(0, 0, i),
			Close:     c,
		})
	}
	return series
}

// driftSeries produces a price path whose daily returns equal the given
// return sequence.
func driftSeries(symbol string, rets []float64) *contracts.PriceSeries {
	closes := []float64{100}
	for _, r := range rets {
		closes = append(closes, closes[len(closes)-1]*(1+r))
	}
	return seriesFromCloses(symbol, closes)
}

func TestRun_PerfectlyCorrelatedTriple(t *testing.T) {
	p := New(logger.NewNop())

	// Three assets moving in lockstep: pairwise correlation 1.0.
	rets := []float64{0.01, -0.02, 0.03, 0.01, -0.01, 0.02}
	scaled := make([]float64, len(rets))
	for i, r := range rets {
		scaled[i] = r * 0.5
	}

	result, err := p.Run([]*contracts.PriceSeries{
		driftSeries("A", rets),
		driftSeries("B", rets),
		driftSeries("C", scaled),
	}, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, StageComplete, result.StageReached)

	assert.Equal(t, 3, result.Graph.NumNodes())
	assert.Equal(t, 3, result.Graph.NumEdges(), "complete 3-node graph at threshold 0.5")

	require.NotNil(t, result.Communities)
	assert.Equal(t, 1, result.Communities.NumCommunities(), "lockstep assets form one community")

	require.NotNil(t, result.Layout)
	assert.Len(t, result.Layout.Positions, 3)
	for _, pos := range result.Layout.Positions {
		assert.Len(t, pos, 3)
	}
}

func TestRun_TwoPairSplit(t *testing.T) {
	p := New(logger.NewNop())

	// Construct two pairs: within-pair returns identical (corr 1.0),
	// cross-pair returns orthogonal enough to fall under the threshold.
	pair1 := []float64{0.01, -0.01, 0.02, -0.02, 0.01, -0.01, 0.02, -0.02}
	pair2 := []float64{0.02, 0.02, -0.01, -0.01, 0.02, 0.02, -0.01, -0.01}

	result, err := p.Run([]*contracts.PriceSeries{
		driftSeries("A", pair1),
		driftSeries("B", pair1),
		driftSeries("C", pair2),
		driftSeries("D", pair2),
	}, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Graph.NumNodes())
	assert.Equal(t, 2, result.Graph.NumEdges(), "only within-pair edges survive threshold 0.5")

	require.NotNil(t, result.Communities)
	assert.Equal(t, 2, result.Communities.NumCommunities())
	assert.Equal(t, result.Communities.Labels["A"], result.Communities.Labels["B"])
	assert.Equal(t, result.Communities.Labels["C"], result.Communities.Labels["D"])
	assert.NotEqual(t, result.Communities.Labels["A"], result.Communities.Labels["C"])
}

func TestRun_EmptyInput(t *testing.T) {
	p := New(logger.NewNop())

	result, err := p.Run(nil, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInsufficientData))
	assert.Equal(t, StageReturns, result.StageReached)
	assert.Nil(t, result.Correlation, "pipeline must abort before correlation")
}

func TestRun_PreservesPartialResults(t *testing.T) {
	p := New(logger.NewNop())

	rets := []float64{0.01, -0.02, 0.03, 0.01}
	cfg := DefaultConfig()
	cfg.LayoutEngine = "no-such-engine"

	result, err := p.Run([]*contracts.PriceSeries{
		driftSeries("A", rets),
		driftSeries("B", rets),
	}, cfg)
	require.Error(t, err)

	// Everything computed before the failing layout stage survives.
	assert.NotNil(t, result.Returns)
	assert.NotNil(t, result.Correlation)
	assert.NotNil(t, result.Graph)
	assert.Nil(t, result.Layout)
}

func TestRun_DetectionSoftFailureFallsBack(t *testing.T) {
	p := New(logger.NewNop())

	// Threshold 1.1 strips every edge (|corr| <= 1 always), which leaves a
	// graph the detector refuses. The run still completes.
	rets1 := []float64{0.01, -0.02, 0.03, 0.01}
	rets2 := []float64{-0.03, 0.01, -0.01, 0.02}
	cfg := DefaultConfig()
	cfg.Threshold = 1.1

	result, err := p.Run([]*contracts.PriceSeries{
		driftSeries("A", rets1),
		driftSeries("B", rets2),
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, StageComplete, result.StageReached)
	assert.Nil(t, result.Communities)

	payload := RenderPayload(result.Graph, result.Communities, result.Layout, cfg.Threshold)
	assert.Equal(t, 1, payload.Communities, "detection failure renders as a single color class")
	for _, n := range payload.Nodes {
		assert.Equal(t, 0, n.Community)
	}
}

func TestRenderPayload(t *testing.T) {
	p := New(logger.NewNop())

	rets := []float64{0.01, -0.02, 0.03, 0.01, -0.01}
	result, err := p.Run([]*contracts.PriceSeries{
		driftSeries("A", rets),
		driftSeries("B", rets),
	}, DefaultConfig())
	require.NoError(t, err)

	payload := RenderPayload(result.Graph, result.Communities, result.Layout, 0.5)
	assert.Equal(t, 0.5, payload.Threshold)
	assert.Equal(t, 3, payload.Dimensions)
	assert.Len(t, payload.Nodes, 2)
	assert.Len(t, payload.Edges, 1)
	for _, n := range payload.Nodes {
		assert.Len(t, n.Position, 3)
	}
}

func TestRunRecord(t *testing.T) {
	p := New(logger.NewNop())

	rets := []float64{0.01, -0.02, 0.03, 0.01}
	cfg := DefaultConfig()
	started := time.Now()
	result, runErr := p.Run([]*contracts.PriceSeries{
		driftSeries("A", rets),
		driftSeries("B", rets),
	}, cfg)
	finished := time.Now()

	run := result.RunRecord(cfg, started, finished, runErr)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, StageComplete, run.StageReached)
	assert.Equal(t, 2, run.AssetCount)
	assert.Equal(t, 1, run.EdgeCount)
	assert.Empty(t, run.Error)
}
