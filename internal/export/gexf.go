package export

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// GEXF 1.2 draft, the interchange format the network artifacts use.

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	Xmlns   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	DefaultEdgeType string     `xml:"defaultedgetype,attr"`
	Nodes           []gexfNode `xml:"nodes>node"`
	Edges           []gexfEdge `xml:"edges>edge"`
}

type gexfNode struct {
	ID    string `xml:"id,attr"`
	Label string `xml:"label,attr"`
}

type gexfEdge struct {
	ID     int     `xml:"id,attr"`
	Source string  `xml:"source,attr"`
	Target string  `xml:"target,attr"`
	Weight float64 `xml:"weight,attr"`
}

// WriteGEXF serializes a graph as GEXF 1.2.
func WriteGEXF(w io.Writer, graph *contracts.Graph) error {
	doc := gexfDoc{
		Xmlns:   "http://www.gexf.net/1.2draft",
		Version: "1.2",
		Graph: gexfGraph{
			DefaultEdgeType: "undirected",
		},
	}
	for _, node := range graph.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{ID: node, Label: node})
	}
	for i, edge := range graph.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
			ID:     i,
			Source: edge.Source,
			Target: edge.Target,
			Weight: edge.Weight,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write gexf header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gexf: %w", err)
	}
	return nil
}

// ReadGEXF parses a GEXF document back into a graph.
func ReadGEXF(r io.Reader) (*contracts.Graph, error) {
	var doc gexfDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gexf: %w", err)
	}

	graph := &contracts.Graph{}
	for _, node := range doc.Graph.Nodes {
		graph.Nodes = append(graph.Nodes, node.ID)
	}
	for _, edge := range doc.Graph.Edges {
		graph.Edges = append(graph.Edges, contracts.Edge{
			Source: edge.Source,
			Target: edge.Target,
			Weight: edge.Weight,
		})
	}
	return graph, nil
}
