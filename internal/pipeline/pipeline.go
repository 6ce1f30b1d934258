// Package pipeline orchestrates the correlation topology stages:
// returns → correlation → network → communities → layout. Stages are
// pure transforms; the pipeline adds logging, run records and
// partial-result preservation around them.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/community"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/correlation"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/layout"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/network"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/returns"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// Stage names recorded on results and run records.
const (
	StageReturns     = "returns"
	StageCorrelation = "correlation"
	StageNetwork     = "network"
	StageCommunities = "communities"
	StageLayout      = "layout"
	StageComplete    = "complete"
)

// Config carries every tunable for one pipeline run. There are no
// package-level defaults to mutate; callers pass a full config each time.
type Config struct {
	Threshold    float64
	LayoutEngine string // "spring" (default) or "circular"
	Layout       layout.Params
}

// DefaultConfig returns the recommended run configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.5,
		LayoutEngine: "spring",
		Layout:       layout.DefaultParams(),
	}
}

// Result holds everything a run produced up to the stage it reached.
// A failed stage leaves earlier artifacts in place so the caller can
// still persist them.
type Result struct {
	RunID        uuid.UUID
	StageReached string
	Returns      *contracts.ReturnsMatrix
	Correlation  *contracts.CorrelationMatrix
	Graph        *contracts.Graph
	Communities  *contracts.CommunityAssignment // nil on soft detection failure
	Layout       *contracts.LayoutCoordinates
}

// Pipeline wires the five stages together.
type Pipeline struct {
	aggregator *returns.Aggregator
	engine     *correlation.Engine
	builder    *network.Builder
	detector   *community.Detector
	logger     *logger.Logger
}

// New creates a pipeline with all stages attached to the given logger.
func New(log *logger.Logger) *Pipeline {
	return &Pipeline{
		aggregator: returns.NewAggregator(log),
		engine:     correlation.NewEngine(log),
		builder:    network.NewBuilder(log),
		detector:   community.NewDetector(log),
		logger:     log,
	}
}

// Run executes the full pipeline over a set of price series. On error
// the returned Result is still populated with every artifact computed
// before the failing stage.
func (p *Pipeline) Run(seriesSet []*contracts.PriceSeries, cfg Config) (*Result, error) {
	result := &Result{RunID: uuid.New()}
	log := p.logger.WithField("run_id", result.RunID.String())
	started := time.Now()

	result.StageReached = StageReturns
	returnsMatrix, err := p.aggregator.Aggregate(seriesSet)
	if err != nil {
		return result, fmt.Errorf("returns stage: %w", err)
	}
	result.Returns = returnsMatrix

	result.StageReached = StageCorrelation
	corrMatrix, err := p.engine.Correlate(returnsMatrix)
	if err != nil {
		return result, fmt.Errorf("correlation stage: %w", err)
	}
	result.Correlation = corrMatrix

	graph, communities, coords, err := p.Analyze(corrMatrix, cfg)
	result.Graph = graph
	result.Communities = communities
	result.Layout = coords
	if err != nil {
		if graph == nil {
			result.StageReached = StageNetwork
		} else {
			result.StageReached = StageLayout
		}
		return result, err
	}

	result.StageReached = StageComplete
	log.WithFields(map[string]interface{}{
		"assets":   returnsMatrix.NumAssets(),
		"edges":    graph.NumEdges(),
		"duration": time.Since(started),
	}).Info("Pipeline complete")

	return result, nil
}

// Analyze runs the graph half of the pipeline (network → communities →
// layout) over an existing correlation matrix. The dashboard calls this
// directly when the user moves the threshold slider; recomputing returns
// and correlations would be wasted work.
func (p *Pipeline) Analyze(corrMatrix *contracts.CorrelationMatrix, cfg Config) (*contracts.Graph, *contracts.CommunityAssignment, *contracts.LayoutCoordinates, error) {
	graph, err := p.builder.Build(corrMatrix, cfg.Threshold)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("network stage: %w", err)
	}

	// Soft failure: nil communities fall back to a single color class
	// downstream, the run itself keeps going.
	communities := p.detector.Detect(graph)

	engine, err := layout.ByName(cfg.LayoutEngine)
	if err != nil {
		return graph, communities, nil, fmt.Errorf("layout stage: %w", err)
	}
	coords, err := engine.Positions(graph, cfg.Layout)
	if err != nil {
		return graph, communities, nil, fmt.Errorf("layout stage: %w", err)
	}

	return graph, communities, coords, nil
}

// RenderPayload assembles the artifact the visualization shell consumes.
// A nil community assignment colors every node with class 0.
func RenderPayload(graph *contracts.Graph, communities *contracts.CommunityAssignment, coords *contracts.LayoutCoordinates, threshold float64) *contracts.RenderPayload {
	payload := &contracts.RenderPayload{
		Threshold:   threshold,
		Dimensions:  coords.Dimensions,
		Communities: 1,
	}
	if communities != nil {
		payload.Communities = communities.NumCommunities()
	}

	for _, node := range graph.Nodes {
		label := 0
		if communities != nil {
			label = communities.Labels[node]
		}
		payload.Nodes = append(payload.Nodes, contracts.RenderNode{
			ID:        node,
			Position:  coords.Positions[node],
			Community: label,
		})
	}
	for _, e := range graph.Edges {
		payload.Edges = append(payload.Edges, contracts.RenderEdge{
			Source: e.Source,
			Target: e.Target,
			Weight: e.Weight,
		})
	}
	return payload
}

// RunRecord converts a result into a persistable run row.
func (r *Result) RunRecord(cfg Config, started, finished time.Time, runErr error) *contracts.PipelineRun {
	run := &contracts.PipelineRun{
		ID:           r.RunID,
		Threshold:    cfg.Threshold,
		Seed:         cfg.Layout.Seed,
		StageReached: r.StageReached,
		StartedAt:    started,
		FinishedAt:   finished,
	}
	if r.Returns != nil {
		run.AssetCount = r.Returns.NumAssets()
	}
	if r.Graph != nil {
		run.EdgeCount = r.Graph.NumEdges()
	}
	if r.Communities != nil {
		run.Communities = r.Communities.NumCommunities()
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return run
}
