package layout

import (
	"math"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// CircularEngine places nodes evenly on a unit circle (2D) or a Fibonacci
// sphere (3D). It ignores edges and the seed entirely, which makes it a
// cheap fallback when a force simulation is not worth running.
type CircularEngine struct{}

// NewCircularEngine creates a circular layout engine.
func NewCircularEngine() *CircularEngine {
	return &CircularEngine{}
}

// Name implements Engine.
func (e *CircularEngine) Name() string { return "circular" }

// Positions implements Engine.
func (e *CircularEngine) Positions(graph *contracts.Graph, params Params) (*contracts.LayoutCoordinates, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	coords := &contracts.LayoutCoordinates{
		Dimensions: params.Dimensions,
		Positions:  make(map[string][]float64),
	}
	if graph.IsEmpty() {
		return coords, nil
	}

	n := graph.NumNodes()
	if params.Dimensions == 2 {
		for i, node := range graph.Nodes {
			angle := 2 * math.Pi * float64(i) / float64(n)
			coords.Positions[node] = []float64{math.Cos(angle), math.Sin(angle)}
		}
		return coords, nil
	}

	// Fibonacci sphere: near-even coverage without randomness.
	golden := math.Pi * (3 - math.Sqrt(5))
	for i, node := range graph.Nodes {
		y := 1 - 2*float64(i)/math.Max(float64(n-1), 1)
		radius := math.Sqrt(math.Max(0, 1-y*y))
		angle := golden * float64(i)
		coords.Positions[node] = []float64{
			math.Cos(angle) * radius,
			y,
			math.Sin(angle) * radius,
		}
	}
	return coords, nil
}
