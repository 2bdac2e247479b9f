package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aqar-tech/realestate-ai-platform/internal/http/middleware"
	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// ListingsHandler serves the property listings CRUD and search endpoints.
type ListingsHandler struct {
	store  *store.Store
	logger *logging.Logger
}

// NewListingsHandler creates a new listings handler.
func NewListingsHandler(st *store.Store, logger *logging.Logger) *ListingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ListingsHandler{store: st, logger: logger}
}

// ListResponse is the response for listing endpoints.
type ListResponse struct {
	Properties []*store.Listing `json:"properties"`
	Count      int              `json:"count"`
}

// List handles GET /api/properties requests.
func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	listings := h.store.Listings()
	writeJSON(w, http.StatusOK, ListResponse{Properties: listings, Count: len(listings)})
}

// Search handles GET /api/properties/search requests. Results are ranked by
// field relevance, with filters narrowing before ranking.
func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SearchFilter{
		Query: q.Get("q"),
		Type:  q.Get("type"),
		City:  q.Get("city"),
	}
	if raw := q.Get("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			filter.MinPrice = v
		}
	}
	if raw := q.Get("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			filter.MaxPrice = v
		}
	}

	results := h.store.Search(filter)
	writeJSON(w, http.StatusOK, ListResponse{Properties: results, Count: len(results)})
}

// Types handles GET /api/properties/types requests.
func (h *ListingsHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"types": h.store.Stats().Types})
}

// Locations handles GET /api/properties/locations requests.
func (h *ListingsHandler) Locations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"locations": h.store.Stats().Cities})
}

// Get handles GET /api/properties/{id} requests. Fetching a listing through
// the API counts as a view.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing := h.store.ListingByID(id)
	if listing == nil {
		http.Error(w, "property not found", http.StatusNotFound)
		return
	}
	if err := h.store.IncrementViews(id); err != nil {
		h.logger.Warn("failed to record view", "id", id, "error", err)
	}
	writeJSON(w, http.StatusOK, listing)
}

// Create handles POST /api/properties requests.
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var listing store.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if listing.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	created, err := h.store.AddListing(listing)
	if err != nil {
		h.logger.Error("failed to create listing", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("listing created", "id", created.ID, "title", created.Title,
		"operator", operatorName(r))
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/properties/{id} requests. The body is a partial
// document; only the fields present are changed.
func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var changes map[string]any
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateListing(id, changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "property not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update listing", "id", id, "error", err)
		http.Error(w, "failed to update property", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/properties/{id} requests.
func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteListing(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "property not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete listing", "id", id, "error", err)
		http.Error(w, "failed to delete property", http.StatusInternalServerError)
		return
	}
	h.logger.Info("listing deleted", "id", id, "operator", operatorName(r))
	w.WriteHeader(http.StatusNoContent)
}

// operatorName labels mutations in the audit log. Empty when the route
// runs without admin auth.
func operatorName(r *http.Request) string {
	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		return ""
	}
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Subject
}
