package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-tech/realestate-ai-platform/internal/responder"
	"github.com/aqar-tech/realestate-ai-platform/internal/session"
	"github.com/aqar-tech/realestate-ai-platform/internal/store"
)

type fakeSender struct {
	mu        sync.Mutex
	connected bool
	sent      []string
	chats     []string
	err       error
}

func (f *fakeSender) Connected() bool { return f.connected }

func (f *fakeSender) SendText(_ context.Context, chat, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	f.chats = append(f.chats, chat)
	return nil
}

type fakeActivity struct {
	mu       sync.Mutex
	saved    []string
	meetings []string
	err      error
}

func (f *fakeActivity) AutoSave(_, _, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, message)
	return f.err
}

func (f *fakeActivity) SaveMeetingRequest(_, client, _, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meetings = append(f.meetings, client)
	return f.err
}

type fakeGenerator struct {
	reply   string
	err     error
	history *responder.History
}

func (f *fakeGenerator) Generate(_ context.Context, _, _, _ string, _ *store.BusinessProfile, _ []*store.Listing) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Status() responder.Status {
	return responder.Status{Configured: true, Model: "test", ActiveConversations: f.hist().ActiveConversations()}
}

func (f *fakeGenerator) History() *responder.History { return f.hist() }

func (f *fakeGenerator) hist() *responder.History {
	if f.history == nil {
		f.history = responder.NewHistory(10, 10)
	}
	return f.history
}

type fakeSink struct {
	mu       sync.Mutex
	chats    []ChatEntry
	events   []session.Event
	statuses []AIStatus
}

func (f *fakeSink) SessionEvent(ev session.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) ChatMessage(entry ChatEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, entry)
}

func (f *fakeSink) AIStatusChanged(st AIStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, st)
}

type fakeNotifier struct {
	mu           sync.Mutex
	appointments []string
	inquiries    []string
}

func (f *fakeNotifier) NotifyAppointment(_ context.Context, a *store.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appointments = append(f.appointments, a.ID)
}

func (f *fakeNotifier) NotifyInquiry(_ context.Context, q *store.Inquiry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inquiries = append(f.inquiries, q.ID)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func inbound(text string) session.InboundMessage {
	return session.InboundMessage{
		Remote:    "201001112222",
		Chat:      "201001112222@s.whatsapp.net",
		PushName:  "Omar",
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestInboundGreetingFallback(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpdateBusiness(store.BusinessProfile{
		Name: "عقارات المستقبل", Address: "القاهرة", Phone: "0100",
	}))

	sender := &fakeSender{connected: true}
	activity := &fakeActivity{}
	sink := &fakeSink{}
	o := New(Options{
		Store:    st,
		Activity: activity,
		Sender:   sender,
		Settings: NewAISettings(AISettingsView{Enabled: false}),
		Sink:     sink,
	})

	o.HandleInbound(context.Background(), inbound("مرحبا"))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "أهلاً وسهلاً بك في عقارات المستقبل")
	assert.Equal(t, "201001112222@s.whatsapp.net", sender.chats[0])
	assert.Equal(t, []string{"مرحبا"}, activity.saved)

	require.Len(t, sink.chats, 2)
	assert.Equal(t, "incoming", sink.chats[0].Type)
	assert.Equal(t, "Omar", sink.chats[0].From)
	assert.Equal(t, "outgoing", sink.chats[1].Type)
	assert.Equal(t, "البوت (تلقائي)", sink.chats[1].From)
}

func TestInboundListingFallbackEnumeratesThree(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st, err := store.New(t.TempDir(), nil, store.WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))
	require.NoError(t, err)
	for i, title := range []string{"شقة أ", "شقة ب", "شقة ج", "شقة د", "شقة هـ"} {
		_, err := st.AddListing(store.Listing{
			Title:    title,
			Type:     "شقة",
			Area:     100 + float64(i),
			Price:    1500000,
			Currency: "ج.م",
			Location: store.Location{City: "القاهرة", District: "مدينة نصر"},
		})
		require.NoError(t, err)
	}

	sender := &fakeSender{connected: true}
	o := New(Options{
		Store:    st,
		Sender:   sender,
		Settings: NewAISettings(AISettingsView{Enabled: false}),
	})

	o.HandleInbound(context.Background(), inbound("عاوز اعرف سعر شقة"))

	require.Len(t, sender.sent, 1)
	reply := sender.sent[0]
	assert.Contains(t, reply, "1. شقة أ")
	assert.Contains(t, reply, "3. شقة ج")
	assert.NotContains(t, reply, "شقة د")
	assert.Contains(t, reply, "مدينة نصر, القاهرة")
	assert.Contains(t, reply, "1,500,000 ج.م")
	assert.Contains(t, reply, "النوع: شقة")
	assert.Contains(t, reply, "وعقارات أخرى متنوعة")
	assert.Contains(t, reply, "متى يناسبك نتكلم؟")
}

func TestInboundUsesAIWhenEnabled(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{connected: true}
	gen := &fakeGenerator{reply: "رد ذكي"}
	sink := &fakeSink{}
	o := New(Options{
		Store:     st,
		Sender:    sender,
		Settings:  NewAISettings(AISettingsView{Enabled: true}),
		Generator: gen,
		Sink:      sink,
	})

	o.HandleInbound(context.Background(), inbound("سؤال"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "رد ذكي", sender.sent[0])
	assert.Equal(t, "البوت (AI)", sink.chats[1].From)
}

func TestInboundAIFailureFallsBack(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{connected: true}
	gen := &fakeGenerator{err: &responder.GenerationError{Kind: responder.ErrorKindRateLimit, Err: errors.New("429")}}
	o := New(Options{
		Store:     st,
		Sender:    sender,
		Settings:  NewAISettings(AISettingsView{Enabled: true}),
		Generator: gen,
	})

	o.HandleInbound(context.Background(), inbound("مرحبا"))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "أهلاً وسهلاً")
}

func TestInboundLoggingFailureDoesNotBlockReply(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{connected: true}
	activity := &fakeActivity{err: errors.New("disk full")}
	o := New(Options{
		Store:    st,
		Sender:   sender,
		Activity: activity,
		Settings: NewAISettings(AISettingsView{}),
	})

	o.HandleInbound(context.Background(), inbound("مرحبا"))
	assert.Len(t, sender.sent, 1)
}

func TestHandleAppointmentNotifies(t *testing.T) {
	st := newTestStore(t)
	notifier := &fakeNotifier{}
	activity := &fakeActivity{}
	o := New(Options{
		Store:    st,
		Sender:   &fakeSender{},
		Activity: activity,
		Notifier: notifier,
	})

	created, err := o.HandleAppointment(context.Background(), store.Appointment{
		ClientName: "Omar", ClientPhone: "0100", Date: "2026-09-01", Time: "14:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{created.ID}, notifier.appointments)
	assert.Equal(t, []string{"Omar"}, activity.meetings)
	assert.Len(t, st.Appointments(), 1)
}

func TestHandleInquiryBumpsListingCounter(t *testing.T) {
	st := newTestStore(t)
	listing, err := st.AddListing(store.Listing{Title: "شقة النيل"})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	o := New(Options{Store: st, Sender: &fakeSender{}, Notifier: notifier})

	created, err := o.HandleInquiry(context.Background(), store.Inquiry{
		ClientName: "Sara", ClientPhone: "0101", Message: "تفاصيل؟", ListingID: listing.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, notifier.inquiries)
	assert.Equal(t, 1, st.ListingByID(listing.ID).Inquiries)
}

func TestRunRoutesEvents(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{connected: true}
	sink := &fakeSink{}
	o := New(Options{
		Store:    st,
		Sender:   sender,
		Settings: NewAISettings(AISettingsView{}),
		Sink:     sink,
	})

	events := make(chan session.Event, 4)
	events <- session.Event{Type: session.EventReady}
	msg := inbound("مرحبا")
	events <- session.Event{Type: session.EventMessage, Message: &msg}
	events <- session.Event{Type: session.EventDisconnected, Reason: session.ReasonLinkLost}
	close(events)

	o.Run(context.Background(), events)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 2)
	assert.Equal(t, session.EventReady, sink.events[0].Type)
	assert.Equal(t, session.EventDisconnected, sink.events[1].Type)
	assert.Len(t, sender.sent, 1)
}

func TestUpdateAISettingsRebuildsGenerator(t *testing.T) {
	st := newTestStore(t)
	sink := &fakeSink{}
	built := 0
	factory := func(_ context.Context, view AISettingsView) (ReplyGenerator, error) {
		built++
		return &fakeGenerator{reply: "من " + view.Provider}, nil
	}
	o := New(Options{
		Store:    st,
		Sender:   &fakeSender{connected: true},
		Settings: NewAISettings(AISettingsView{Provider: "gemini", Model: "gemini-2.5-flash"}),
		Factory:  factory,
		Sink:     sink,
	})

	stts, err := o.UpdateAISettings(context.Background(), AISettingsView{
		Enabled: true, Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, built)
	assert.True(t, stts.Enabled)
	assert.Equal(t, "openai", stts.Provider)
	assert.True(t, stts.Configured)
	require.Len(t, sink.statuses, 1)

	// Disabling keeps the generator but flips the flag; no rebuild.
	stts, err = o.UpdateAISettings(context.Background(), AISettingsView{Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, 1, built)
	assert.False(t, stts.Enabled)
}

func TestUpdateAISettingsFactoryError(t *testing.T) {
	st := newTestStore(t)
	factory := func(context.Context, AISettingsView) (ReplyGenerator, error) {
		return nil, errors.New("bad key")
	}
	o := New(Options{
		Store:    st,
		Sender:   &fakeSender{},
		Settings: NewAISettings(AISettingsView{}),
		Factory:  factory,
	})

	_, err := o.UpdateAISettings(context.Background(), AISettingsView{Enabled: true, APIKey: "x"})
	assert.Error(t, err)
	assert.Nil(t, o.Generator())
}
