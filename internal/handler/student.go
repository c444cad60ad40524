package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rosterwatch/rosterwatch/internal/handler/dto"
	"github.com/rosterwatch/rosterwatch/internal/service"
)

// StudentHandler handles the student roster endpoints.
type StudentHandler struct {
	svc    *service.StudentService
	logger *slog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(svc *service.StudentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{svc: svc, logger: logger}
}

// List handles GET /api/students.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// Create handles POST /api/students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := h.svc.Create(r.Context(), service.CreateStudentInput{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("student_created", "student_id", student.ID)
	writeJSON(w, http.StatusCreated, student)
}

// Get handles GET /api/students/{id}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	student, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// Update handles PATCH /api/students/{id}.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateStudentInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("student_updated", "student_id", student.ID)
	writeJSON(w, http.StatusOK, student)
}

// Delete handles DELETE /api/students/{id}.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("student_deleted", "student_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, service.ErrStudentExists):
		writeError(w, http.StatusConflict, "Student ID already exists")
	default:
		h.logger.Error("student request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
