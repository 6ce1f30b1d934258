package contracts

// RenderNode is one node of the render payload: a position in layout
// space plus a color-class label from community detection.
type RenderNode struct {
	ID        string    `json:"id"`
	Position  []float64 `json:"position"`
	Community int       `json:"community"`
}

// RenderEdge is one line segment of the render payload.
type RenderEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// RenderPayload is what the visualization shell consumes: one positioned,
// colored node per asset and one segment per retained edge.
type RenderPayload struct {
	Threshold   float64      `json:"threshold"`
	Dimensions  int          `json:"dimensions"`
	Nodes       []RenderNode `json:"nodes"`
	Edges       []RenderEdge `json:"edges"`
	Communities int          `json:"communities"`
}
