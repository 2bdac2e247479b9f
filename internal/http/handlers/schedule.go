package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// Scheduler is the slice of the orchestrator the scheduling endpoints use.
// Routing creation through it keeps the side effects (admin notifications,
// spreadsheet rows, inquiry counters) in one place.
type Scheduler interface {
	HandleAppointment(ctx context.Context, a store.Appointment) (*store.Appointment, error)
	HandleInquiry(ctx context.Context, q store.Inquiry) (*store.Inquiry, error)
}

// ScheduleHandler serves appointments and inquiries.
type ScheduleHandler struct {
	store     *store.Store
	scheduler Scheduler
	logger    *logging.Logger
}

// NewScheduleHandler creates a new scheduling handler.
func NewScheduleHandler(st *store.Store, scheduler Scheduler, logger *logging.Logger) *ScheduleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleHandler{store: st, scheduler: scheduler, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListAppointments handles GET /api/appointments requests.
func (h *ScheduleHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Appointments())
}

// CreateAppointment handles POST /api/appointments requests.
func (h *ScheduleHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var a store.Appointment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if a.ClientName == "" || a.ClientPhone == "" {
		http.Error(w, "clientName and clientPhone are required", http.StatusBadRequest)
		return
	}

	created, err := h.scheduler.HandleAppointment(r.Context(), a)
	if err != nil {
		h.logger.Error("failed to create appointment", "error", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAppointmentStatus handles PATCH /api/appointments/{id}/status requests.
func (h *ScheduleHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateAppointmentStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update appointment status", "id", id, "error", err)
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
}

// ListInquiries handles GET /api/inquiries requests.
func (h *ScheduleHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Inquiries())
}

// CreateInquiry handles POST /api/inquiries requests.
func (h *ScheduleHandler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var q store.Inquiry
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if q.ClientPhone == "" || q.Message == "" {
		http.Error(w, "clientPhone and message are required", http.StatusBadRequest)
		return
	}

	created, err := h.scheduler.HandleInquiry(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to create inquiry", "error", err)
		http.Error(w, "failed to create inquiry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateInquiryStatus handles PATCH /api/inquiries/{id}/status requests.
func (h *ScheduleHandler) UpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateInquiryStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "inquiry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update inquiry status", "id", id, "error", err)
		http.Error(w, "failed to update inquiry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return "", false
	}
	return req.Status, true
}
