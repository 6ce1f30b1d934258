// Package handlers contains the HTTP handlers for the dashboard API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// NetworkHandler serves the correlation matrix and recomputed network
// payloads. The matrix is computed once at startup; only the cheap
// graph half of the pipeline reruns per request.
type NetworkHandler struct {
	corrMatrix *contracts.CorrelationMatrix
	pipeline   *pipeline.Pipeline
	defaults   pipeline.Config
	logger     *logger.Logger
}

// NewNetworkHandler creates a new network handler.
func NewNetworkHandler(corrMatrix *contracts.CorrelationMatrix, p *pipeline.Pipeline, defaults pipeline.Config, log *logger.Logger) *NetworkHandler {
	return &NetworkHandler{
		corrMatrix: corrMatrix,
		pipeline:   p,
		defaults:   defaults,
		logger:     log,
	}
}

// GetCorrelation returns the cached correlation matrix.
// GET /api/correlation
func (h *NetworkHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.corrMatrix)
}

// GetNetwork rebuilds the thresholded network, communities and layout
// and returns the render payload.
// GET /api/network?threshold=0.5
func (h *NetworkHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	cfg := h.defaults

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be a number in [0, 1]")
			return
		}
		cfg.Threshold = threshold
	}
	if raw := r.URL.Query().Get("layout"); raw != "" {
		cfg.LayoutEngine = raw
	}

	payload, err := h.computePayload(cfg)
	if err != nil {
		h.logger.WithError(err).Error("Network recompute failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// computePayload runs build → detect → layout over the cached matrix.
func (h *NetworkHandler) computePayload(cfg pipeline.Config) (*contracts.RenderPayload, error) {
	graph, communities, coords, err := h.pipeline.Analyze(h.corrMatrix, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.RenderPayload(graph, communities, coords, cfg.Threshold), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
