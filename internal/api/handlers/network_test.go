package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

func testHandler() *NetworkHandler {
	matrix := &contracts.CorrelationMatrix{
		Symbols: []string{"A", "B", "C"},
		Values: [][]float64{
			{1.0, 0.9, 0.1},
			{0.9, 1.0, 0.2},
			{0.1, 0.2, 1.0},
		},
	}
	log := logger.NewNop()
	return NewNetworkHandler(matrix, pipeline.New(log), pipeline.DefaultConfig(), log)
}

func TestGetNetwork(t *testing.T) {
	handler := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/network?threshold=0.5", nil)
	rec := httptest.NewRecorder()
	handler.GetNetwork(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload contracts.RenderPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, 0.5, payload.Threshold)
	assert.Len(t, payload.Nodes, 3)
	assert.Len(t, payload.Edges, 1, "only the 0.9 pair passes threshold 0.5")
	for _, n := range payload.Nodes {
		assert.Len(t, n.Position, 3)
	}
}

func TestGetNetwork_DefaultThreshold(t *testing.T) {
	handler := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/network", nil)
	rec := httptest.NewRecorder()
	handler.GetNetwork(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload contracts.RenderPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 0.5, payload.Threshold, "defaults to the configured threshold")
}

func TestGetNetwork_InvalidThreshold(t *testing.T) {
	handler := testHandler()

	for _, raw := range []string{"abc", "-0.5", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/network?threshold="+raw, nil)
		rec := httptest.NewRecorder()
		handler.GetNetwork(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "threshold=%s should be rejected", raw)
	}
}

func TestGetNetwork_UnknownLayout(t *testing.T) {
	handler := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/network?layout=bogus", nil)
	rec := httptest.NewRecorder()
	handler.GetNetwork(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetCorrelation(t *testing.T) {
	handler := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/correlation", nil)
	rec := httptest.NewRecorder()
	handler.GetCorrelation(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var matrix contracts.CorrelationMatrix
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matrix))
	assert.Equal(t, []string{"A", "B", "C"}, matrix.Symbols)
	assert.Equal(t, 1.0, matrix.Values[0][0])
}
