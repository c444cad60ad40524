package handler

import (
	"log/slog"
	"net/http"

	"github.com/rosterwatch/rosterwatch/internal/metrics"
)

// MetricsHandler serves the registry in the Prometheus text format.
type MetricsHandler struct {
	reg    *metrics.Registry
	logger *slog.Logger
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(reg *metrics.Registry, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{reg: reg, logger: logger}
}

// Metrics renders every registered instrument.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	body, err := h.reg.Render()
	if err != nil {
		h.logger.Error("failed to render metrics", "error", err)
		http.Error(w, "failed to render metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", metrics.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
