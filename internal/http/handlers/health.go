package handlers

import (
	"net/http"
	"time"

	"github.com/aqar-tech/realestate-ai-platform/internal/session"
)

// SessionStatus reports whether the chat session is connected.
type SessionStatus interface {
	Status() session.Status
}

// HealthHandler serves liveness and session status.
type HealthHandler struct {
	sessions SessionStatus
	started  time.Time
}

// NewHealthHandler creates a new health handler. sessions may be nil.
func NewHealthHandler(sessions SessionStatus) *HealthHandler {
	return &HealthHandler{sessions: sessions, started: time.Now()}
}

// Get handles GET /health requests.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.sessions != nil {
		resp["session"] = h.sessions.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
