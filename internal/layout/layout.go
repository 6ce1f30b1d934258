// Package layout computes deterministic node embeddings for rendering
// correlation networks.
package layout

import (
	"fmt"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// Params are the layout tunables. Iterations is the explicit convergence
// budget; there is no hidden cap.
type Params struct {
	Seed           int64
	Dimensions     int     // 2 or 3
	SpringConstant float64 // optimal node distance; <= 0 selects 1/sqrt(n)
	Iterations     int
}

// DefaultParams returns the parameters the visualization pipeline uses
// unless configured otherwise.
func DefaultParams() Params {
	return Params{
		Seed:           42,
		Dimensions:     3,
		SpringConstant: 0.3,
		Iterations:     50,
	}
}

// Validate checks parameter invariants.
func (p Params) Validate() error {
	if p.Dimensions != 2 && p.Dimensions != 3 {
		return fmt.Errorf("unsupported layout dimensions %d (want 2 or 3)", p.Dimensions)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("layout iterations must be positive, got %d", p.Iterations)
	}
	return nil
}

// Engine computes node positions for a graph. Implementations must be
// deterministic: identical (graph, params) inputs reproduce identical
// coordinates bit for bit. An empty graph yields an empty mapping, not
// an error.
type Engine interface {
	Name() string
	Positions(graph *contracts.Graph, params Params) (*contracts.LayoutCoordinates, error)
}

// ByName returns the engine registered under name, defaulting to the
// spring engine for an empty name.
func ByName(name string) (Engine, error) {
	switch name {
	case "", "spring":
		return NewSpringEngine(), nil
	case "circular":
		return NewCircularEngine(), nil
	default:
		return nil, fmt.Errorf("unknown layout engine %q", name)
	}
}
