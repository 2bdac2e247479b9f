// Package handlers holds the REST handlers behind the dashboard API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// BusinessHandler serves the business profile.
type BusinessHandler struct {
	store  *store.Store
	logger *logging.Logger
}

// NewBusinessHandler creates a new business profile handler.
func NewBusinessHandler(st *store.Store, logger *logging.Logger) *BusinessHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BusinessHandler{store: st, logger: logger}
}

// Get handles GET /api/business requests.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile := h.store.Business()
	if profile == nil {
		profile = &store.BusinessProfile{}
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/business requests.
func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	var profile store.BusinessProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateBusiness(profile); err != nil {
		h.logger.Error("failed to update business profile", "error", err)
		http.Error(w, "failed to update business profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Business())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
