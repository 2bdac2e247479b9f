package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/aqar-tech/realestate-ai-platform/internal/xlsxlog"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams the spreadsheet logs as downloads.
type ExportHandler struct {
	recorder *xlsxlog.Recorder
	logger   *logging.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(recorder *xlsxlog.Recorder, logger *logging.Logger) *ExportHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ExportHandler{recorder: recorder, logger: logger}
}

// Messages handles GET /api/export/messages requests.
func (h *ExportHandler) Messages(w http.ResponseWriter, r *http.Request) {
	h.serveWorkbook(w, r, h.recorder.MessagesFile())
}

// Meetings handles GET /api/export/meetings requests.
func (h *ExportHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	h.serveWorkbook(w, r, h.recorder.MeetingsFile())
}

// SalesContacts handles GET /api/export/sales requests.
func (h *ExportHandler) SalesContacts(w http.ResponseWriter, r *http.Request) {
	h.serveWorkbook(w, r, h.recorder.SalesContactsFile())
}

func (h *ExportHandler) serveWorkbook(w http.ResponseWriter, r *http.Request, path string) {
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "no log file yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
