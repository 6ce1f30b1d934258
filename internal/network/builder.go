// Package network converts correlation matrices into thresholded
// weighted graphs.
package network

import (
	"fmt"
	"math"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// Builder constructs correlation networks. Deterministic: the same
// matrix and threshold always yield the identical edge set.
type Builder struct {
	logger *logger.Logger
}

// NewBuilder creates a new network builder.
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{logger: log}
}

// Build creates one node per matrix label (kept even when isolated) and
// one edge per unordered pair whose absolute correlation meets the
// threshold. The comparison uses |corr| so strong negative relationships
// survive; the signed value is preserved as the edge weight. Returns
// contracts.ErrEmptyInput on an empty matrix.
func (b *Builder) Build(matrix *contracts.CorrelationMatrix, threshold float64) (*contracts.Graph, error) {
	if matrix.IsEmpty() {
		return nil, fmt.Errorf("cannot build network: %w", contracts.ErrEmptyInput)
	}

	graph := &contracts.Graph{
		Nodes: append([]string(nil), matrix.Symbols...),
	}

	// Each unordered pair exactly once: j > i rules out self-loops and
	// duplicates.
	n := matrix.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := matrix.At(i, j)
			if math.Abs(corr) >= threshold {
				graph.Edges = append(graph.Edges, contracts.Edge{
					Source: matrix.Symbols[i],
					Target: matrix.Symbols[j],
					Weight: corr,
				})
			}
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"nodes":        graph.NumNodes(),
		"edges":        graph.NumEdges(),
		"threshold":    threshold,
		"total_weight": graph.TotalWeight(),
	}).Info("Built correlation network")

	return graph, nil
}
