// Package session owns the lifecycle of the link to the chat network:
// pairing, reconnection, keepalive, inbound filtering, and outbound sends
// with typing simulation.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/aqar-tech/realestate-ai-platform/internal/observability/metrics"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// staleCutoff drops messages delivered from the network's offline queue;
// answering a question from an hour ago reads as noise to the customer.
const staleCutoff = 60 * time.Second

// ErrNotConnected reports a send attempted without a live link.
var ErrNotConnected = errors.New("session: not connected")

// WireClient is the narrow surface the session needs from the underlying
// chat network library.
type WireClient interface {
	// Connect opens the link. When no credentials are stored the wire
	// emits WireQR events until pairing completes.
	Connect(ctx context.Context) error
	// Disconnect closes the link without touching credentials.
	Disconnect()
	// Logout closes the link and invalidates stored credentials.
	Logout(ctx context.Context) error
	// HasCredentials reports whether a stored login exists.
	HasCredentials() bool
	// SendText delivers a text message to the given chat address.
	SendText(ctx context.Context, chat, text string) error
	// SetTyping toggles the typing indicator for the given chat.
	SetTyping(ctx context.Context, chat string, typing bool) error
	// Announce marks this client as available, keeping the link warm.
	Announce(ctx context.Context) error
	// Events yields wire notifications until the wire is closed.
	Events() <-chan WireEvent
	// Close releases wire resources. No events are emitted afterwards.
	Close() error
}

// Config tunes the session state machine.
type Config struct {
	QRMaxRetries      int
	MaxReconnects     int
	ReconnectBase     time.Duration
	ReconnectCap      time.Duration
	KeepaliveInterval time.Duration
	TypingDelay       time.Duration
}

func (c Config) withDefaults() Config {
	if c.QRMaxRetries <= 0 {
		c.QRMaxRetries = 3
	}
	if c.MaxReconnects <= 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = 5 * time.Second
	}
	if c.ReconnectCap <= 0 {
		c.ReconnectCap = 30 * time.Second
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = 30 * time.Second
	}
	if c.TypingDelay <= 0 {
		c.TypingDelay = 2500 * time.Millisecond
	}
	return c
}

// Status is a point-in-time snapshot for the dashboard.
type Status struct {
	Connected      bool `json:"connected"`
	HasCredentials bool `json:"authExists"`
}

// Session drives one link to the chat network. It translates raw wire
// events into typed Events, enforcing the pairing and reconnect policy.
type Session struct {
	wire    WireClient
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.Metrics

	events chan Event

	mu        sync.Mutex
	connected bool
	stopping  bool

	done chan struct{}
	now  func() time.Time
}

// New builds a session around the given wire client. Call Start to connect.
func New(wire WireClient, cfg Config, logger *logging.Logger, m *metrics.Metrics) *Session {
	if wire == nil {
		panic("session: wire client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		wire:    wire,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: m,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Events returns the session event stream. The channel closes when the
// session terminates.
func (s *Session) Events() <-chan Event { return s.events }

// Connected reports whether the link is currently up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Status snapshots the session for the dashboard.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: s.connected, HasCredentials: s.wire.HasCredentials()}
}

// Start connects and runs the event loop until the session terminates.
// The loop exits on Stop, on logout, on pairing expiry, or when the
// reconnect budget is exhausted.
func (s *Session) Start(ctx context.Context) error {
	if err := s.wire.Connect(ctx); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	go s.run(ctx)
	return nil
}

// Stop closes the link and terminates the event loop. Safe to call more
// than once and on a session that already terminated.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	s.wire.Disconnect()
	s.wire.Close()
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	qrCount := 0
	reconnects := 0
	terminal := false
	var keepalive *time.Ticker
	var keepaliveC <-chan time.Time
	stopKeepalive := func() {
		if keepalive != nil {
			keepalive.Stop()
			keepalive = nil
			keepaliveC = nil
		}
	}
	defer stopKeepalive()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepaliveC:
			if err := s.wire.Announce(ctx); err != nil {
				s.logger.Warn("keepalive failed", "error", err)
			}
		case ev, ok := <-s.wire.Events():
			if !ok {
				s.setConnected(false)
				if !s.isStopping() && !terminal {
					s.emit(Event{Type: EventDisconnected, Reason: ReasonLinkLost})
				}
				return
			}

			switch ev := ev.(type) {
			case WireQR:
				qrCount++
				if qrCount > s.cfg.QRMaxRetries {
					s.logger.Warn("pairing window expired", "codes", qrCount-1)
					terminal = true
					s.emit(Event{Type: EventAuthExpired})
					s.wire.Disconnect()
					s.wire.Close()
					continue
				}
				s.logger.Info("pairing code issued", "attempt", qrCount)
				s.emit(Event{Type: EventQR, QRCode: ev.Code})

			case WireConnected:
				qrCount = 0
				reconnects = 0
				s.setConnected(true)
				stopKeepalive()
				keepalive = time.NewTicker(s.cfg.KeepaliveInterval)
				keepaliveC = keepalive.C
				s.logger.Info("session connected")
				s.emit(Event{Type: EventReady})

			case WireLoggedOut:
				s.setConnected(false)
				stopKeepalive()
				terminal = true
				s.logger.Warn("account logged out remotely, clearing credentials")
				if err := s.wire.Logout(ctx); err != nil {
					s.logger.Error("credential cleanup failed", "error", err)
				}
				s.emit(Event{Type: EventDisconnected, Reason: ReasonLoggedOut})
				s.wire.Close()

			case WireDisconnected:
				s.setConnected(false)
				stopKeepalive()
				if s.isStopping() {
					s.emit(Event{Type: EventDisconnected, Reason: ReasonRequested})
					return
				}

				if terminal {
					continue
				}
				reconnects++
				if reconnects > s.cfg.MaxReconnects {
					err := fmt.Errorf("session: gave up after %d reconnect attempts", reconnects-1)
					terminal = true
					s.logger.Error("reconnect budget exhausted", "attempts", reconnects-1)
					s.emit(Event{Type: EventDisconnected, Reason: ReasonLinkLost})
					s.emit(Event{Type: EventError, Err: err})
					s.wire.Close()
					continue
				}

				delay := time.Duration(reconnects) * s.cfg.ReconnectBase
				if delay > s.cfg.ReconnectCap {
					delay = s.cfg.ReconnectCap
				}
				s.metrics.ObserveReconnect()
				s.logger.Warn("link lost, reconnecting", "attempt", reconnects, "delay", delay)
				s.emit(Event{Type: EventDisconnected, Reason: ReasonLinkLost})

				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				if s.isStopping() {
					return
				}
				if err := s.wire.Connect(ctx); err != nil {
					s.logger.Error("reconnect failed", "attempt", reconnects, "error", err)
				}

			case WireMessage:
				if msg, ok := s.filter(ev); ok {
					s.metrics.ObserveInbound()
					s.emit(Event{Type: EventMessage, Message: &msg})
				}
			}
		}
	}
}

// filter drops echoes of our own sends, broadcast traffic, empty payloads,
// and messages older than the stale cutoff.
func (s *Session) filter(ev WireMessage) (InboundMessage, bool) {
	if ev.FromMe || ev.Broadcast || ev.Text == "" {
		return InboundMessage{}, false
	}
	if age := s.now().Sub(ev.Timestamp); age > staleCutoff {
		s.logger.Debug("stale message dropped", "remote", ev.Remote, "age", age)
		return InboundMessage{}, false
	}
	return InboundMessage{
		Remote:    ev.Remote,
		Chat:      ev.Chat,
		PushName:  ev.PushName,
		Text:      ev.Text,
		Timestamp: ev.Timestamp,
	}, true
}

// SendText delivers a reply. With typing enabled the customer sees a
// typing indicator for a couple of seconds first, so replies do not land
// instantly like a machine's.
func (s *Session) SendText(ctx context.Context, chat, text string, showTyping bool) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if showTyping {
		if err := s.wire.SetTyping(ctx, chat, true); err != nil {
			s.logger.Debug("typing indicator failed", "error", err)
		}
		delay := s.cfg.TypingDelay + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		defer func() {
			if err := s.wire.SetTyping(ctx, chat, false); err != nil {
				s.logger.Debug("typing indicator failed", "error", err)
			}
		}()
	}
	if err := s.wire.SendText(ctx, chat, text); err != nil {
		return fmt.Errorf("session: send: %w", err)
	}
	s.metrics.ObserveOutbound()
	return nil
}

func (s *Session) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Session) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped, consumer too slow", "type", string(ev.Type))
	}
}
