// Package orchestrator ties the chat session, the AI responder, the
// persistence store, and the spreadsheet logs together: every inbound
// customer message is logged, answered, and surfaced to the dashboard.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aqar-tech/realestate-ai-platform/internal/observability/metrics"
	"github.com/aqar-tech/realestate-ai-platform/internal/responder"
	"github.com/aqar-tech/realestate-ai-platform/internal/session"
	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("realestate.internal.orchestrator")

// errorReply goes out when even the fallback path blew up.
const errorReply = "عذراً، حدث خطأ في معالجة رسالتك. يرجى المحاولة مرة أخرى."

// MessageSender is the slice of the session manager the orchestrator needs.
type MessageSender interface {
	Connected() bool
	SendText(ctx context.Context, chat, text string, showTyping bool) error
}

// ActivityLog records chat traffic and requests into the spreadsheet logs.
type ActivityLog interface {
	AutoSave(phone, sender, message string) error
	SaveMeetingRequest(phone, client, requestType, details, status, notes string) error
}

// ReplyGenerator produces AI replies. *responder.Service satisfies this.
type ReplyGenerator interface {
	Generate(ctx context.Context, remote, userMessage, systemPrompt string, business *store.BusinessProfile, listings []*store.Listing) (string, error)
	Status() responder.Status
	History() *responder.History
}

// GeneratorFactory builds a ReplyGenerator for the given provider settings,
// called whenever the dashboard changes them.
type GeneratorFactory func(ctx context.Context, view AISettingsView) (ReplyGenerator, error)

// ChatEntry is one chat line pushed to the dashboard feed.
type ChatEntry struct {
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// AIStatus describes the responder for the dashboard.
type AIStatus struct {
	Enabled             bool   `json:"enabled"`
	Provider            string `json:"provider"`
	Model               string `json:"model"`
	Configured          bool   `json:"configured"`
	ActiveConversations int    `json:"activeConversations"`
}

// EventSink receives dashboard-bound notifications. Implementations must
// not block.
type EventSink interface {
	SessionEvent(ev session.Event)
	ChatMessage(entry ChatEntry)
	AIStatusChanged(st AIStatus)
}

// AdminNotifier delivers qualifying-event notifications to operators.
type AdminNotifier interface {
	NotifyAppointment(ctx context.Context, a *store.Appointment)
	NotifyInquiry(ctx context.Context, q *store.Inquiry)
}

// Orchestrator routes inbound messages and business events.
type Orchestrator struct {
	store    *store.Store
	activity ActivityLog
	sender   MessageSender
	settings *AISettings
	factory  GeneratorFactory
	sink     EventSink
	notifier AdminNotifier
	metrics  *metrics.Metrics
	logger   *logging.Logger

	mu        sync.RWMutex
	generator ReplyGenerator
}

// Options carries the orchestrator dependencies. Sink, Notifier, Metrics,
// and Generator may be nil.
type Options struct {
	Store     *store.Store
	Activity  ActivityLog
	Sender    MessageSender
	Settings  *AISettings
	Factory   GeneratorFactory
	Generator ReplyGenerator
	Sink      EventSink
	Notifier  AdminNotifier
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
}

// New builds the orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Store == nil {
		panic("orchestrator: store cannot be nil")
	}
	if opts.Sender == nil {
		panic("orchestrator: sender cannot be nil")
	}
	if opts.Settings == nil {
		opts.Settings = NewAISettings(AISettingsView{})
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Orchestrator{
		store:     opts.Store,
		activity:  opts.Activity,
		sender:    opts.Sender,
		settings:  opts.Settings,
		factory:   opts.Factory,
		generator: opts.Generator,
		sink:      opts.Sink,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Run consumes session events until the channel closes or ctx ends.
// Inbound messages are handled inline; lifecycle events are relayed to the
// dashboard sink.
func (o *Orchestrator) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == session.EventMessage && ev.Message != nil {
				o.HandleInbound(ctx, *ev.Message)
				continue
			}
			if o.sink != nil {
				o.sink.SessionEvent(ev)
			}
		}
	}
}

// HandleInbound runs the full pipeline for one customer message: log it,
// surface it, generate a reply, and send it back. Logging failures never
// block the reply.
func (o *Orchestrator) HandleInbound(ctx context.Context, msg session.InboundMessage) {
	ctx, span := tracer.Start(ctx, "orchestrator.inbound",
		trace.WithAttributes(attribute.String("realestate.remote", msg.Remote)))
	defer span.End()

	if o.activity != nil {
		if err := o.activity.AutoSave(msg.Remote, msg.PushName, msg.Text); err != nil {
			o.logger.Error("activity log failed", "remote", msg.Remote, "error", err)
		}
	}
	o.publishChat(ChatEntry{From: displayName(msg), Message: msg.Text, Type: "incoming", Timestamp: msg.Timestamp})

	reply, source := o.buildReply(ctx, msg)
	if reply == "" {
		return
	}

	if err := o.sender.SendText(ctx, msg.Chat, reply, true); err != nil {
		o.logger.Error("reply send failed", "remote", msg.Remote, "error", err)
		span.RecordError(err)
		return
	}
	o.metrics.ObserveReply(source)

	from := "البوت (AI)"
	if source == "fallback" {
		from = "البوت (تلقائي)"
	}
	o.publishChat(ChatEntry{From: from, Message: reply, Type: "outgoing", Timestamp: time.Now()})
	o.logger.Info("reply sent", "remote", msg.Remote, "source", source)
}

// buildReply picks the AI path when enabled and configured, falling back to
// the canned responder on any failure. The fallback is total, so a reply
// always comes back.
func (o *Orchestrator) buildReply(ctx context.Context, msg session.InboundMessage) (string, string) {
	view := o.settings.Snapshot()
	business := o.store.Business()
	listings := o.store.Listings()

	gen := o.Generator()
	if view.Enabled && gen != nil {
		start := time.Now()
		reply, err := gen.Generate(ctx, msg.Remote, msg.Text, view.SystemPrompt, business, listings)
		o.metrics.ObserveGenerationLatency(time.Since(start).Seconds())
		if err == nil {
			return reply, "ai"
		}
		o.logger.Warn("generation failed, using fallback",
			"remote", msg.Remote,
			"kind", string(responder.KindOf(err)),
			"error", err)
	}
	return FallbackReply(msg.Text, business, listings), "fallback"
}

// HandleAppointment persists a new appointment, logs it, and notifies the
// operators. Notification failures do not fail the creation.
func (o *Orchestrator) HandleAppointment(ctx context.Context, a store.Appointment) (*store.Appointment, error) {
	created, err := o.store.AddAppointment(a)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: add appointment: %w", err)
	}
	if o.activity != nil {
		details := fmt.Sprintf("التاريخ: %s، الوقت: %s", created.Date, created.Time)
		if err := o.activity.SaveMeetingRequest(created.ClientPhone, created.ClientName, "موعد من لوحة التحكم", details, "", created.Notes); err != nil {
			o.logger.Error("meeting log failed", "id", created.ID, "error", err)
		}
	}
	if o.notifier != nil {
		o.notifier.NotifyAppointment(ctx, created)
	}
	return created, nil
}

// HandleInquiry persists a new inquiry, bumps the listing counter, and
// notifies the operators.
func (o *Orchestrator) HandleInquiry(ctx context.Context, q store.Inquiry) (*store.Inquiry, error) {
	created, err := o.store.AddInquiry(q)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: add inquiry: %w", err)
	}
	if created.ListingID != "" {
		if err := o.store.IncrementInquiries(created.ListingID); err != nil {
			o.logger.Error("inquiry counter failed", "listing", created.ListingID, "error", err)
		}
	}
	if o.notifier != nil {
		o.notifier.NotifyInquiry(ctx, created)
	}
	return created, nil
}

// UpdateAISettings applies dashboard changes and rebuilds the generator
// when a factory is configured. The dashboard is told either way.
func (o *Orchestrator) UpdateAISettings(ctx context.Context, changes AISettingsView) (AIStatus, error) {
	view := o.settings.Apply(changes)

	if o.factory != nil && view.Enabled && view.APIKey != "" {
		gen, err := o.factory(ctx, view)
		if err != nil {
			o.logger.Error("responder rebuild failed", "provider", view.Provider, "error", err)
			return o.AIStatus(), fmt.Errorf("orchestrator: rebuild responder: %w", err)
		}
		o.setGenerator(gen)
		o.logger.Info("responder rebuilt", "provider", view.Provider, "model", view.Model)
	}

	st := o.AIStatus()
	if o.sink != nil {
		o.sink.AIStatusChanged(st)
	}
	return st, nil
}

// AIStatus snapshots the responder state for the dashboard.
func (o *Orchestrator) AIStatus() AIStatus {
	view := o.settings.Snapshot()
	st := AIStatus{
		Enabled:  view.Enabled,
		Provider: view.Provider,
		Model:    view.Model,
	}
	if gen := o.Generator(); gen != nil {
		rs := gen.Status()
		st.Configured = rs.Configured
		st.ActiveConversations = rs.ActiveConversations
	}
	return st
}

// ClearConversation drops the rolling history for one remote party.
func (o *Orchestrator) ClearConversation(remote string) {
	if gen := o.Generator(); gen != nil {
		gen.History().Clear(remote)
	}
}

// Generator returns the current reply generator, or nil.
func (o *Orchestrator) Generator() ReplyGenerator {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.generator
}

func (o *Orchestrator) setGenerator(gen ReplyGenerator) {
	o.mu.Lock()
	o.generator = gen
	o.mu.Unlock()
}

func (o *Orchestrator) publishChat(entry ChatEntry) {
	if o.sink != nil {
		o.sink.ChatMessage(entry)
	}
}

func displayName(msg session.InboundMessage) string {
	if msg.PushName != "" {
		return msg.PushName
	}
	return msg.Remote
}
