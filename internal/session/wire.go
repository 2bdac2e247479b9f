package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// Wire adapts the whatsmeow client to the WireClient interface. Credentials
// live in a sqlite database under authDir, owned by the library.
type Wire struct {
	client  *whatsmeow.Client
	store   *sqlstore.Container
	authDir string
	logger  *logging.Logger

	events chan WireEvent

	mu     sync.Mutex
	closed bool
}

var _ WireClient = (*Wire)(nil)

// NewWire opens the credential store under authDir and prepares a client.
// The link is not opened until Connect.
func NewWire(ctx context.Context, authDir string, logger *logging.Logger) (*Wire, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(authDir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create auth dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(authDir, "session.db"))
	container, err := sqlstore.New(ctx, "sqlite", dsn, waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("session: open credential store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Noop)
	// Reconnect policy lives in the Session, not the library.
	client.EnableAutoReconnect = false

	w := &Wire{
		client:  client,
		store:   container,
		authDir: authDir,
		logger:  logger,
		events:  make(chan WireEvent, 64),
	}
	client.AddEventHandler(w.handleEvent)
	return w, nil
}

func (w *Wire) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		w.push(WireConnected{})
	case *events.Disconnected:
		w.push(WireDisconnected{})
	case *events.LoggedOut:
		w.push(WireLoggedOut{})
	case *events.Message:
		w.push(WireMessage{
			Remote:    e.Info.Sender.ToNonAD().User,
			Chat:      e.Info.Chat.ToNonAD().String(),
			PushName:  e.Info.PushName,
			Text:      extractText(e),
			Timestamp: e.Info.Timestamp,
			FromMe:    e.Info.IsFromMe,
			Broadcast: e.Info.Chat.Server == types.BroadcastServer,
		})
	}
}

func extractText(e *events.Message) string {
	if text := e.Message.GetConversation(); text != "" {
		return text
	}
	return e.Message.GetExtendedTextMessage().GetText()
}

// Connect opens the link. Without stored credentials the pairing channel is
// drained into WireQR events until the library stops issuing codes.
func (w *Wire) Connect(ctx context.Context) error {
	if w.client.Store.ID == nil {
		qrChan, err := w.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("session: pairing channel: %w", err)
		}
		go func() {
			for item := range qrChan {
				if item.Event == whatsmeow.QRChannelEventCode {
					w.push(WireQR{Code: item.Code})
				}
			}
		}()
	}
	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	return nil
}

// Disconnect drops the link without touching credentials.
func (w *Wire) Disconnect() {
	w.client.Disconnect()
}

// Logout unlinks the device and removes stored credentials.
func (w *Wire) Logout(ctx context.Context) error {
	if err := w.client.Logout(ctx); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

// HasCredentials reports whether a paired device is stored.
func (w *Wire) HasCredentials() bool {
	return w.client.Store.ID != nil
}

// SendText sends a plain text message to the given chat address.
func (w *Wire) SendText(ctx context.Context, chat, text string) error {
	jid, err := parseChat(chat)
	if err != nil {
		return err
	}
	_, err = w.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("session: send message: %w", err)
	}
	return nil
}

// SetTyping toggles the composing indicator for the given chat.
func (w *Wire) SetTyping(ctx context.Context, chat string, typing bool) error {
	jid, err := parseChat(chat)
	if err != nil {
		return err
	}
	state := types.ChatPresencePaused
	if typing {
		state = types.ChatPresenceComposing
	}
	if err := w.client.SendChatPresence(jid, state, types.ChatPresenceMediaText); err != nil {
		return fmt.Errorf("session: chat presence: %w", err)
	}
	return nil
}

// Announce marks the client available, which also keeps the link warm.
func (w *Wire) Announce(context.Context) error {
	if err := w.client.SendPresence(types.PresenceAvailable); err != nil {
		return fmt.Errorf("session: presence: %w", err)
	}
	return nil
}

// Events yields wire notifications.
func (w *Wire) Events() <-chan WireEvent { return w.events }

// Close disconnects and closes the event channel. Idempotent.
func (w *Wire) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.client.RemoveEventHandlers()
	w.client.Disconnect()
	close(w.events)
	return w.store.Close()
}

func (w *Wire) push(ev WireEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- ev:
	default:
		w.logger.Warn("wire event dropped, buffer full")
	}
}

// parseChat accepts either a full chat address or a bare phone number.
func parseChat(chat string) (types.JID, error) {
	if jid, err := types.ParseJID(chat); err == nil && jid.Server != "" {
		return jid, nil
	}
	if chat == "" {
		return types.JID{}, fmt.Errorf("session: empty chat address")
	}
	return types.NewJID(chat, types.DefaultUserServer), nil
}
