package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

func TestCorrelationCSV_RoundTrip(t *testing.T) {
	matrix := &contracts.CorrelationMatrix{
		Symbols: []string{"A", "B", "C"},
		Values: [][]float64{
			{1.0, 0.8123456789, -0.65},
			{0.8123456789, 1.0, 0.3},
			{-0.65, 0.3, 1.0},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCorrelationCSV(&buf, matrix))

	got, err := ReadCorrelationCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, matrix.Symbols, got.Symbols)
	for i := range matrix.Symbols {
		for j := range matrix.Symbols {
			assert.Equal(t, matrix.Values[i][j], got.Values[i][j],
				"value (%d,%d) must survive the round trip exactly", i, j)
		}
	}
}

func TestReturnsCSV_RoundTrip(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	matrix := &contracts.ReturnsMatrix{
		Symbols:    []string{"A", "B"},
		Timestamps: []time.Time{base, base.AddDate(0, 0, 1)},
		Columns: map[string][]float64{
			"A": {0.01, -0.02},
			"B": {0.005, 0.015},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReturnsCSV(&buf, matrix))

	got, err := ReadReturnsCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, matrix.Symbols, got.Symbols)
	require.Len(t, got.Timestamps, 2)
	assert.True(t, got.Timestamps[0].Equal(base))
	assert.Equal(t, matrix.Columns["A"], got.Columns["A"])
	assert.Equal(t, matrix.Columns["B"], got.Columns["B"])
}

func TestReadCorrelationCSV_Malformed(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"header only", ",A,B\n"},
		{"not square", ",A,B\nA,1.0,0.5\n"},
		{"non numeric", ",A\nA,oops\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCorrelationCSV(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestGEXF_RoundTrip(t *testing.T) {
	graph := &contracts.Graph{
		Nodes: []string{"AAPL", "MSFT", "XOM"},
		Edges: []contracts.Edge{
			{Source: "AAPL", Target: "MSFT", Weight: 0.82},
			{Source: "MSFT", Target: "XOM", Weight: -0.55},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGEXF(&buf, graph))

	out := buf.String()
	assert.Contains(t, out, `defaultedgetype="undirected"`)
	assert.Contains(t, out, `version="1.2"`)

	got, err := ReadGEXF(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, graph.Nodes, got.Nodes)
	assert.Equal(t, graph.Edges, got.Edges)
}

func TestCommunitiesJSON_RoundTrip(t *testing.T) {
	communities := &contracts.CommunityAssignment{
		Labels: map[string]int{"AAPL": 0, "MSFT": 0, "XOM": 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCommunitiesJSON(&buf, communities))

	got, err := ReadCommunitiesJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, communities.Labels, got.Labels)
}

func TestWriteRenderPayloadJSON(t *testing.T) {
	payload := &contracts.RenderPayload{
		Threshold:  0.5,
		Dimensions: 3,
		Nodes: []contracts.RenderNode{
			{ID: "AAPL", Position: []float64{0.1, 0.2, 0.3}, Community: 0},
		},
		Edges:       []contracts.RenderEdge{{Source: "AAPL", Target: "MSFT", Weight: 0.8}},
		Communities: 1,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRenderPayloadJSON(&buf, payload))
	assert.Contains(t, buf.String(), `"threshold": 0.5`)
	assert.Contains(t, buf.String(), `"AAPL"`)
}
