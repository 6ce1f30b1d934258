package layout

import (
	"math"
	"math/rand"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// SpringEngine is a Fruchterman–Reingold force-directed embedding: all
// nodes repel uniformly, connected nodes attract proportionally to edge
// weight, and a linearly cooling temperature caps per-step movement.
// The seed fixes the pseudo-random initial placement, making the whole
// run reproducible.
type SpringEngine struct{}

// NewSpringEngine creates a spring layout engine.
func NewSpringEngine() *SpringEngine {
	return &SpringEngine{}
}

// Name implements Engine.
func (e *SpringEngine) Name() string { return "spring" }

// Positions implements Engine.
func (e *SpringEngine) Positions(graph *contracts.Graph, params Params) (*contracts.LayoutCoordinates, error) {
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
	dim := params.Dimensions

	k := params.SpringConstant
	if k <= 0 {
		k = 1 / math.Sqrt(float64(n))
	}

	// Seeded initial placement in the unit cube. Node order follows
	// graph.Nodes, so the draw sequence is fixed for a fixed graph.
	rng := rand.New(rand.NewSource(params.Seed))
	pos := make([][]float64, n)
	for i := range pos {
		pos[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			pos[i][d] = rng.Float64()
		}
	}

	index := make(map[string]int, n)
	for i, node := range graph.Nodes {
		index[node] = i
	}

	type adjEdge struct {
		i, j int
		w    float64
	}
	edges := make([]adjEdge, 0, len(graph.Edges))
	for _, edge := range graph.Edges {
		w := edge.Weight
		if w < 0 {
			w = -w
		}
		edges = append(edges, adjEdge{i: index[edge.Source], j: index[edge.Target], w: w})
	}

	// Initial temperature is a tenth of the layout span; it cools to zero
	// over the iteration budget.
	t := 0.1
	dt := t / float64(params.Iterations+1)

	disp := make([][]float64, n)
	for i := range disp {
		disp[i] = make([]float64, dim)
	}
	delta := make([]float64, dim)

	for iter := 0; iter < params.Iterations; iter++ {
		for i := range disp {
			for d := 0; d < dim; d++ {
				disp[i][d] = 0
			}
		}

		// Uniform repulsion between every node pair.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dist := distance(pos[i], pos[j], delta)
				force := k * k / dist
				for d := 0; d < dim; d++ {
					push := delta[d] / dist * force
					disp[i][d] += push
					disp[j][d] -= push
				}
			}
		}

		// Weight-scaled attraction along edges.
		for _, e := range edges {
			dist := distance(pos[e.i], pos[e.j], delta)
			force := dist * dist / k * e.w
			for d := 0; d < dim; d++ {
				pull := delta[d] / dist * force
				disp[e.i][d] -= pull
				disp[e.j][d] += pull
			}
		}

		// Move, capped by the current temperature.
		for i := 0; i < n; i++ {
			var length float64
			for d := 0; d < dim; d++ {
				length += disp[i][d] * disp[i][d]
			}
			length = math.Sqrt(length)
			if length < minSeparation {
				length = minSeparation
			}
			limit := math.Min(length, t)
			for d := 0; d < dim; d++ {
				pos[i][d] += disp[i][d] / length * limit
			}
		}

		t -= dt
	}

	for i, node := range graph.Nodes {
		coords.Positions[node] = pos[i]
	}
	return coords, nil
}

// minSeparation keeps coincident nodes from producing infinite forces.
const minSeparation = 1e-9

// distance fills delta with pos[a]−pos[b] and returns its Euclidean
// length, floored at minSeparation.
func distance(a, b, delta []float64) float64 {
	var sum float64
	for d := range delta {
		delta[d] = a[d] - b[d]
		sum += delta[d] * delta[d]
	}
	dist := math.Sqrt(sum)
	if dist < minSeparation {
		return minSeparation
	}
	return dist
}
