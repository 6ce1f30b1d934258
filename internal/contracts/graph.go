package contracts

import "sort"

// Edge is an undirected weighted edge between two assets. Source/Target
// carry no direction; the weight is the signed correlation value that
// put the edge in the graph.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is an undirected weighted correlation network. No self-loops,
// at most one edge per unordered node pair.
type Graph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	return len(g.Edges)
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// TotalWeight returns the sum of absolute edge weights (2m uses twice
// this value in modularity calculations).
func (g *Graph) TotalWeight() float64 {
	var total float64
	for _, e := range g.Edges {
		total += abs(e.Weight)
	}
	return total
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// CommunityAssignment maps every node to a non-negative community label.
// Labels are dense indices starting at 0 and partition the node set.
type CommunityAssignment struct {
	Labels map[string]int `json:"labels"` // key: node, value: community index
}

// NumCommunities returns the number of distinct labels.
func (c *CommunityAssignment) NumCommunities() int {
	seen := make(map[int]struct{})
	for _, label := range c.Labels {
		seen[label] = struct{}{}
	}
	return len(seen)
}

// Members returns the sorted node list for a community label.
func (c *CommunityAssignment) Members(label int) []string {
	var members []string
	for node, l := range c.Labels {
		if l == label {
			members = append(members, node)
		}
	}
	sort.Strings(members)
	return members
}

// LayoutCoordinates maps every node to a position in layout space.
// Deterministic for a fixed (graph, seed, params) triple.
type LayoutCoordinates struct {
	Dimensions int                  `json:"dimensions"`
	Positions  map[string][]float64 `json:"positions"` // key: node, len == Dimensions
}
