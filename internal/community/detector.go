// Package community partitions correlation networks into communities by
// greedy modularity maximization (Clauset–Newman–Moore agglomeration).
package community

import (
	"sort"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// deltaEpsilon separates a genuine modularity gain from floating-point
// noise around zero.
const deltaEpsilon = 1e-12

// Detector performs greedy modularity community detection. Deterministic
// for a fixed graph: ties between equal-gain merges break toward the
// candidate whose communities contain the lowest node indices.
type Detector struct {
	logger *logger.Logger
}

// NewDetector creates a new community detector.
func NewDetector(log *logger.Logger) *Detector {
	return &Detector{logger: log}
}

// Detect partitions the graph's node set. Every node starts in its own
// singleton community; the pair of communities whose merge yields the
// largest positive modularity increase is merged until no merge helps.
// Degenerate graphs the agglomeration cannot process (no nodes, or zero
// total edge weight) yield nil instead of an error, so
// callers can fall back to single-community coloring.
func (d *Detector) Detect(graph *contracts.Graph) *contracts.CommunityAssignment {
	if graph.IsEmpty() {
		d.logger.Warn("Community detection skipped: empty graph")
		return nil
	}

	state := newMergeState(graph)
	if state == nil {
		d.logger.WithField("nodes", graph.NumNodes()).
			Warn("Community detection failed: graph has no usable edge weight")
		return nil
	}

	merges := 0
	for {
		a, b, gain := state.bestMerge()
		if gain <= deltaEpsilon {
			break
		}
		state.merge(a, b)
		merges++
	}

	assignment := state.assignment(graph)

	d.logger.WithFields(map[string]interface{}{
		"nodes":       graph.NumNodes(),
		"merges":      merges,
		"communities": assignment.NumCommunities(),
	}).Info("Detected communities")

	return assignment
}

// mergeState tracks the live communities during agglomeration. Community
// IDs are the index of their lowest original node, which is what the
// tie-break compares.
type mergeState struct {
	nodes   []string
	index   map[string]int // node → original index
	m       float64        // total edge weight
	members map[int][]int  // community → member node indices
	degree  map[int]float64
	// between[a][b] = summed |weight| between communities a and b, a < b
	between map[int]map[int]float64
}

func newMergeState(graph *contracts.Graph) *mergeState {
	s := &mergeState{
		nodes:   graph.Nodes,
		index:   make(map[string]int, len(graph.Nodes)),
		members: make(map[int][]int, len(graph.Nodes)),
		degree:  make(map[int]float64, len(graph.Nodes)),
		between: make(map[int]map[int]float64),
	}
	for i, n := range graph.Nodes {
		s.index[n] = i
		s.members[i] = []int{i}
	}

	// Modularity ignores the correlation sign: edge strength is |weight|.
	for _, e := range graph.Edges {
		w := e.Weight
		if w < 0 {
			w = -w
		}
		i, j := s.index[e.Source], s.index[e.Target]
		s.m += w
		s.degree[i] += w
		s.degree[j] += w
		s.addBetween(i, j, w)
	}

	if s.m <= 0 {
		return nil
	}
	return s
}

func (s *mergeState) addBetween(a, b int, w float64) {
	if a > b {
		a, b = b, a
	}
	if s.between[a] == nil {
		s.between[a] = make(map[int]float64)
	}
	s.between[a][b] += w
}

// deltaQ is the modularity change from merging communities a and b:
// w_ab/m − k_a·k_b/(2m²).
func (s *mergeState) deltaQ(a, b int, wab float64) float64 {
	return wab/s.m - s.degree[a]*s.degree[b]/(2*s.m*s.m)
}

// bestMerge scans connected community pairs for the largest gain. Ties
// break toward the lowest (a, b) pair; candidate enumeration is over
// sorted keys, so the scan itself is deterministic.
func (s *mergeState) bestMerge() (int, int, float64) {
	bestA, bestB := -1, -1
	bestGain := 0.0

	as := make([]int, 0, len(s.between))
	for a := range s.between {
		as = append(as, a)
	}
	sort.Ints(as)

	for _, a := range as {
		bs := make([]int, 0, len(s.between[a]))
		for b := range s.between[a] {
			bs = append(bs, b)
		}
		sort.Ints(bs)

		for _, b := range bs {
			gain := s.deltaQ(a, b, s.between[a][b])
			if gain > bestGain+deltaEpsilon {
				bestA, bestB, bestGain = a, b, gain
			}
		}
	}

	return bestA, bestB, bestGain
}

// merge folds community b into community a (a < b always holds because
// between keys are normalized).
func (s *mergeState) merge(a, b int) {
	s.members[a] = append(s.members[a], s.members[b]...)
	delete(s.members, b)
	s.degree[a] += s.degree[b]
	delete(s.degree, b)

	// Re-point every b-adjacency at a.
	rewired := make(map[int]float64)
	for x, row := range s.between {
		for y, w := range row {
			if x != b && y != b {
				continue
			}
			other := x
			if other == b {
				other = y
			}
			if other != a {
				rewired[other] += w
			}
			delete(row, y)
		}
		if len(row) == 0 {
			delete(s.between, x)
		}
	}
	for other, w := range rewired {
		s.addBetween(a, other, w)
	}
}

// assignment converts the final community list into dense labels:
// communities ordered by size descending, equal sizes by their smallest
// member index.
func (s *mergeState) assignment(graph *contracts.Graph) *contracts.CommunityAssignment {
	type comm struct {
		minIdx  int
		members []int
	}

	var communities []comm
	for id, members := range s.members {
		sort.Ints(members)
		communities = append(communities, comm{minIdx: id, members: members})
	}
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i].members) != len(communities[j].members) {
			return len(communities[i].members) > len(communities[j].members)
		}
		return communities[i].minIdx < communities[j].minIdx
	})

	labels := make(map[string]int, len(graph.Nodes))
	for label, c := range communities {
		for _, idx := range c.members {
			labels[s.nodes[idx]] = label
		}
	}

	return &contracts.CommunityAssignment{Labels: labels}
}

// Modularity computes Q for an assignment over a graph, using absolute
// edge weights. Exposed for tests and diagnostics.
func Modularity(graph *contracts.Graph, assignment *contracts.CommunityAssignment) float64 {
	if graph.IsEmpty() || assignment == nil {
		return 0
	}

	var m float64
	degree := make(map[string]float64, len(graph.Nodes))
	for _, e := range graph.Edges {
		w := e.Weight
		if w < 0 {
			w = -w
		}
		m += w
		degree[e.Source] += w
		degree[e.Target] += w
	}
	if m <= 0 {
		return 0
	}

	var q float64
	for _, e := range graph.Edges {
		if assignment.Labels[e.Source] == assignment.Labels[e.Target] {
			w := e.Weight
			if w < 0 {
				w = -w
			}
			q += w / m
		}
	}
	for _, a := range graph.Nodes {
		for _, b := range graph.Nodes {
			if assignment.Labels[a] == assignment.Labels[b] {
				q -= degree[a] * degree[b] / (4 * m * m)
			}
		}
	}
	return q
}
