package handlers

import (
	"net/http"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/internal/xlsxlog"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	store    *store.Store
	recorder *xlsxlog.Recorder
	logger   *logging.Logger
}

// NewStatsHandler creates a new stats handler. recorder may be nil, in which
// case the message and meeting counters stay zero.
func NewStatsHandler(st *store.Store, recorder *xlsxlog.Recorder, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{store: st, recorder: recorder, logger: logger}
}

// StatsResponse aggregates listing, message, and meeting counters.
type StatsResponse struct {
	Properties store.ListingStats    `json:"properties"`
	Messages   xlsxlog.MessagesStats `json:"messages"`
	Meetings   xlsxlog.MeetingsStats `json:"meetings"`
}

// Get handles GET /api/stats requests.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Properties: h.store.Stats()}
	if h.recorder != nil {
		resp.Messages = h.recorder.GetMessagesStats()
		resp.Meetings = h.recorder.GetMeetingsStats()
	}
	writeJSON(w, http.StatusOK, resp)
}
