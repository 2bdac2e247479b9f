// Package dashboard bridges the operator UI over WebSocket: session
// lifecycle events, the live chat feed, and AI settings flow through one
// connection per browser tab.
package dashboard

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/aqar-tech/realestate-ai-platform/internal/orchestrator"
	"github.com/aqar-tech/realestate-ai-platform/internal/session"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// SessionController is the slice of the session manager the dashboard
// drives.
type SessionController interface {
	Connect(ctx context.Context) error
	Disconnect()
	ClearCredentials(ctx context.Context) error
	Status() session.Status
}

// AIController exposes the runtime AI controls.
type AIController interface {
	AIStatus() orchestrator.AIStatus
	UpdateAISettings(ctx context.Context, changes orchestrator.AISettingsView) (orchestrator.AIStatus, error)
}

// Frame is one message to the browser.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Request is one message from the browser.
type Request struct {
	Type     string                       `json:"type"`
	Settings *orchestrator.AISettingsView `json:"settings,omitempty"`
}

type frameSender interface {
	send(Frame) error
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.JSON.Send(c.conn, f)
}

// Handler fans session and chat events out to every connected dashboard
// tab and executes their control requests.
type Handler struct {
	sessionCtl SessionController
	logger     *logging.Logger

	mu    sync.RWMutex
	aiCtl AIController
	conns map[*wsConn]struct{}
}

// NewHandler creates the dashboard bridge.
func NewHandler(sessionCtl SessionController, aiCtl AIController, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessionCtl: sessionCtl,
		aiCtl:      aiCtl,
		logger:     logger,
		conns:      make(map[*wsConn]struct{}),
	}
}

// SetAIController binds the AI controls after construction. The handler
// and the orchestrator reference each other, so one side has to bind late.
func (h *Handler) SetAIController(aiCtl AIController) {
	h.mu.Lock()
	h.aiCtl = aiCtl
	h.mu.Unlock()
}

func (h *Handler) aiController() AIController {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.aiCtl
}

// HandleWebSocket upgrades to WebSocket and serves one dashboard tab.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	c := &wsConn{conn: conn}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
	}()

	h.logger.Info("dashboard: connection opened", "remote", r.RemoteAddr)

	// Tell the new tab where things stand.
	_ = c.send(Frame{Type: "status", Payload: h.sessionCtl.Status()})
	if aiCtl := h.aiController(); aiCtl != nil {
		_ = c.send(Frame{Type: "aiStatus", Payload: aiCtl.AIStatus()})
	}

	for {
		var req Request
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			h.logger.Debug("dashboard: connection closed", "error", err)
			return
		}
		h.handleRequest(r.Context(), c, req)
	}
}

func (h *Handler) handleRequest(ctx context.Context, c frameSender, req Request) {
	switch req.Type {
	case "generateQR":
		if err := h.sessionCtl.Connect(ctx); err != nil {
			h.logger.Error("dashboard: connect failed", "error", err)
			_ = c.send(Frame{Type: "error", Payload: map[string]string{"message": "فشل بدء الاتصال، حاول مرة أخرى"}})
		}

	case "disconnect":
		h.sessionCtl.Disconnect()
		_ = c.send(Frame{Type: "disconnected", Payload: map[string]string{"reason": session.ReasonRequested}})

	case "clearPhone":
		if err := h.sessionCtl.ClearCredentials(ctx); err != nil {
			h.logger.Error("dashboard: clear credentials failed", "error", err)
			_ = c.send(Frame{Type: "error", Payload: map[string]string{"message": "فشل مسح بيانات الجلسة"}})
			return
		}
		_ = c.send(Frame{Type: "phoneCleared"})

	case "getAIStatus":
		if aiCtl := h.aiController(); aiCtl != nil {
			_ = c.send(Frame{Type: "aiStatus", Payload: aiCtl.AIStatus()})
		}

	case "updateAISettings":
		aiCtl := h.aiController()
		if aiCtl == nil || req.Settings == nil {
			_ = c.send(Frame{Type: "error", Payload: map[string]string{"message": "إعدادات غير صالحة"}})
			return
		}
		if _, err := aiCtl.UpdateAISettings(ctx, *req.Settings); err != nil {
			h.logger.Error("dashboard: ai settings update failed", "error", err)
			_ = c.send(Frame{Type: "error", Payload: map[string]string{"message": "فشل تحديث إعدادات الذكاء الاصطناعي"}})
		}

	default:
		if !strings.EqualFold(req.Type, "ping") {
			h.logger.Debug("dashboard: unknown request", "type", req.Type)
		}
	}
}

// Broadcast sends a frame to every connected tab. A dead connection only
// loses its own frame.
func (h *Handler) Broadcast(f Frame) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.send(f); err != nil {
			h.logger.Debug("dashboard: broadcast send failed", "error", err)
		}
	}
}

// SessionEvent implements orchestrator.EventSink.
func (h *Handler) SessionEvent(ev session.Event) {
	h.Broadcast(frameForEvent(ev))
}

// ChatMessage implements orchestrator.EventSink.
func (h *Handler) ChatMessage(entry orchestrator.ChatEntry) {
	h.Broadcast(Frame{Type: "message", Payload: entry})
}

// AIStatusChanged implements orchestrator.EventSink.
func (h *Handler) AIStatusChanged(st orchestrator.AIStatus) {
	h.Broadcast(Frame{Type: "aiStatusChanged", Payload: st})
}

// frameForEvent maps a session event to its dashboard frame. QR codes go
// out as PNG data URLs the UI can drop into an img tag.
func frameForEvent(ev session.Event) Frame {
	switch ev.Type {
	case session.EventQR:
		dataURL, err := qrDataURL(ev.QRCode)
		if err != nil {
			return Frame{Type: "error", Payload: map[string]string{"message": "فشل توليد رمز الاقتران"}}
		}
		return Frame{Type: "qr", Payload: map[string]string{"qr": dataURL}}
	case session.EventReady:
		return Frame{Type: "ready"}
	case session.EventDisconnected:
		return Frame{Type: "disconnected", Payload: map[string]string{"reason": ev.Reason}}
	case session.EventAuthExpired:
		return Frame{Type: "authExpired"}
	case session.EventError:
		msg := "حدث خطأ في الجلسة"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return Frame{Type: "error", Payload: map[string]string{"message": msg}}
	default:
		return Frame{Type: string(ev.Type)}
	}
}
