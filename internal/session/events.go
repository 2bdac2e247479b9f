package session

import "time"

// InboundMessage is a customer message accepted by the session after
// filtering. Remote is the bare phone number of the sender, Chat the full
// network address the reply should go to.
type InboundMessage struct {
	Remote    string    `json:"remote"`
	Chat      string    `json:"chat"`
	PushName  string    `json:"pushName"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType identifies a session lifecycle event.
type EventType string

const (
	// EventQR carries a fresh pairing code for the dashboard to render.
	EventQR EventType = "qr"
	// EventReady fires when the session is connected and usable.
	EventReady EventType = "ready"
	// EventDisconnected fires when the link drops, with a reason.
	EventDisconnected EventType = "disconnected"
	// EventAuthExpired fires when pairing was not completed within the
	// allowed number of QR codes.
	EventAuthExpired EventType = "auth_expired"
	// EventMessage carries an accepted inbound customer message.
	EventMessage EventType = "message"
	// EventError fires on terminal failures, such as exhausted reconnects.
	EventError EventType = "error"
)

// Disconnect reasons.
const (
	ReasonLoggedOut = "loggedOut"
	ReasonRequested = "requested"
	ReasonLinkLost  = "linkLost"
)

// Event is a typed session notification consumed by the orchestrator and
// the dashboard bridge.
type Event struct {
	Type    EventType       `json:"type"`
	QRCode  string          `json:"qrCode,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Message *InboundMessage `json:"message,omitempty"`
	Err     error           `json:"-"`
}

// WireEvent is a low-level notification from the wire client. The session
// state machine translates these into Events.
type WireEvent interface{ wireEvent() }

// WireConnected signals the link is up and authenticated.
type WireConnected struct{}

// WireDisconnected signals the link dropped without a logout.
type WireDisconnected struct{}

// WireLoggedOut signals the account was unlinked remotely; stored
// credentials are no longer valid.
type WireLoggedOut struct{}

// WireQR carries one pairing code.
type WireQR struct{ Code string }

// WireMessage is a raw inbound message before session filtering.
type WireMessage struct {
	Remote    string
	Chat      string
	PushName  string
	Text      string
	Timestamp time.Time
	FromMe    bool
	Broadcast bool
}

func (WireConnected) wireEvent()    {}
func (WireDisconnected) wireEvent() {}
func (WireLoggedOut) wireEvent()    {}
func (WireQR) wireEvent()           {}
func (WireMessage) wireEvent()      {}
