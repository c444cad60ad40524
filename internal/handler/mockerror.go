package handler

import (
	"math/rand/v2"
	"net/http"
	"strconv"
)

// MockErrorHandler fails on purpose so error-rate dashboards have data.
type MockErrorHandler struct {
	roll func() float64
}

// NewMockErrorHandler creates a MockErrorHandler using math/rand.
func NewMockErrorHandler() *MockErrorHandler {
	return &MockErrorHandler{roll: rand.Float64}
}

// Serve answers 500 with probability rate% (query parameter, default 100).
//
// GET, POST /api/mock-error?rate=N
func (h *MockErrorHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rate := 100
	if raw := r.URL.Query().Get("rate"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			rate = n
		}
	}

	if h.roll()*100 < float64(rate) {
		writeError(w, http.StatusInternalServerError, "Internal Server Error (Mocked)")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Request succeeded"})
}
