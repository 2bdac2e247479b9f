package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aqar-tech/realestate-ai-platform/internal/observability/metrics"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// WireFactory builds a fresh wire client for each connection attempt.
type WireFactory func(ctx context.Context) (WireClient, error)

// Manager enforces the process-wide single-session rule: at most one live
// session at a time, with the previous one fully torn down before a new
// connect. All session events are funneled into one stream regardless of
// which session produced them.
type Manager struct {
	newWire WireFactory
	cfg     Config
	authDir string
	logger  *logging.Logger
	metrics *metrics.Metrics

	out chan Event

	mu      sync.Mutex
	current *Session
}

// NewManager creates a manager. authDir is wiped by ClearCredentials.
func NewManager(newWire WireFactory, cfg Config, authDir string, logger *logging.Logger, m *metrics.Metrics) *Manager {
	if newWire == nil {
		panic("session: wire factory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		newWire: newWire,
		cfg:     cfg,
		authDir: authDir,
		logger:  logger,
		metrics: m,
		out:     make(chan Event, 64),
	}
}

// Events returns the merged event stream across all sessions the manager
// ever starts. The channel stays open for the life of the manager.
func (m *Manager) Events() <-chan Event { return m.out }

// Connect tears down any existing session and starts a new one.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logger.Info("replacing existing session")
		m.current.Stop()
		m.current = nil
	}

	wire, err := m.newWire(ctx)
	if err != nil {
		return fmt.Errorf("session: build wire: %w", err)
	}

	sess := New(wire, m.cfg, m.logger, m.metrics)
	if err := sess.Start(ctx); err != nil {
		wire.Close()
		return err
	}
	m.current = sess

	go func() {
		for ev := range sess.Events() {
			select {
			case m.out <- ev:
			default:
				m.logger.Warn("session event dropped, consumer too slow", "type", string(ev.Type))
			}
		}
	}()
	return nil
}

// Disconnect stops the current session. A no-op when none is running.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.Stop()
	m.current = nil
}

// ClearCredentials stops the current session and removes all stored auth
// state, forcing a fresh pairing on the next connect.
func (m *Manager) ClearCredentials(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}
	if m.authDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.authDir); err != nil {
		return fmt.Errorf("session: clear credentials: %w", err)
	}
	m.logger.Info("stored credentials cleared", "auth_dir", m.authDir)
	return nil
}

// Current returns the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Connected reports whether a live, linked session exists.
func (m *Manager) Connected() bool {
	s := m.Current()
	return s != nil && s.Connected()
}

// SendText delivers a message through the current session.
func (m *Manager) SendText(ctx context.Context, chat, text string, showTyping bool) error {
	s := m.Current()
	if s == nil {
		return ErrNotConnected
	}
	return s.SendText(ctx, chat, text, showTyping)
}

// Status snapshots the current session for the dashboard. With no session,
// both fields are false except credential presence on disk.
func (m *Manager) Status() Status {
	s := m.Current()
	if s == nil {
		_, err := os.Stat(m.authDir)
		return Status{Connected: false, HasCredentials: err == nil}
	}
	return s.Status()
}
