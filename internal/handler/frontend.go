package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/rosterwatch/rosterwatch/internal/frontend"
	"github.com/rosterwatch/rosterwatch/internal/metrics"
)

// FrontendHandler ingests events reported by browser clients.
type FrontendHandler struct {
	reg    *metrics.Registry
	logger *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(reg *metrics.Registry, logger *slog.Logger) *FrontendHandler {
	return &FrontendHandler{reg: reg, logger: logger}
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Ingest records a single frontend event. Unknown event types are accepted
// and ignored.
//
// POST /api/frontend-metrics
func (h *FrontendHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	payload, err := frontend.Parse(body)
	if err != nil {
		h.logger.Debug("rejected frontend event", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event := payload.Event()
	if u, ok := event.(frontend.Unknown); ok {
		h.logger.Debug("ignored frontend event", "type", u.Type)
	}
	frontend.Record(h.reg, event)

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
