package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// LiveHandler streams recomputed render payloads over a websocket as the
// client moves the threshold slider. One connection, one goroutine; each
// inbound threshold message answers with a full payload.
type LiveHandler struct {
	corrMatrix *contracts.CorrelationMatrix
	pipeline   *pipeline.Pipeline
	defaults   pipeline.Config
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// thresholdRequest is the inbound websocket message.
type thresholdRequest struct {
	Threshold float64 `json:"threshold"`
	Layout    string  `json:"layout,omitempty"`
}

// liveError is sent when a recompute fails; the connection stays open.
type liveError struct {
	Error string `json:"error"`
}

// NewLiveHandler creates a new live network handler.
func NewLiveHandler(corrMatrix *contracts.CorrelationMatrix, p *pipeline.Pipeline, defaults pipeline.Config, log *logger.Logger) *LiveHandler {
	return &LiveHandler{
		corrMatrix: corrMatrix,
		pipeline:   p,
		defaults:   defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from any origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Serve upgrades the connection and answers threshold messages until the
// client disconnects.
// GET /api/network/live
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Info("Live network client connected")

	// Initial payload at the configured default threshold.
	if err := h.send(conn, h.defaults); err != nil {
		return
	}

	for {
		var req thresholdRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("Live network client read failed")
			}
			return
		}

		cfg := h.defaults
		if req.Threshold < 0 || req.Threshold > 1 {
			_ = conn.WriteJSON(liveError{Error: "threshold must be in [0, 1]"})
			continue
		}
		cfg.Threshold = req.Threshold
		if req.Layout != "" {
			cfg.LayoutEngine = req.Layout
		}

		if err := h.send(conn, cfg); err != nil {
			return
		}
	}
}

// send recomputes the payload for cfg and writes it to the connection.
// Recompute errors are reported in-band; only write errors end the loop.
func (h *LiveHandler) send(conn *websocket.Conn, cfg pipeline.Config) error {
	graph, communities, coords, err := h.pipeline.Analyze(h.corrMatrix, cfg)
	if err != nil {
		h.logger.WithError(err).Error("Live network recompute failed")
		return conn.WriteJSON(liveError{Error: err.Error()})
	}
	return conn.WriteJSON(pipeline.RenderPayload(graph, communities, coords, cfg.Threshold))
}
