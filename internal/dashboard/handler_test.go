package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-tech/realestate-ai-platform/internal/orchestrator"
	"github.com/aqar-tech/realestate-ai-platform/internal/session"
)

type fakeSessionCtl struct {
	connectErr  error
	connects    int
	disconnects int
	cleared     int
}

func (f *fakeSessionCtl) Connect(context.Context) error {
	f.connects++
	return f.connectErr
}

func (f *fakeSessionCtl) Disconnect() { f.disconnects++ }

func (f *fakeSessionCtl) ClearCredentials(context.Context) error {
	f.cleared++
	return nil
}

func (f *fakeSessionCtl) Status() session.Status { return session.Status{} }

type fakeAICtl struct {
	status  orchestrator.AIStatus
	updated []orchestrator.AISettingsView
	err     error
}

func (f *fakeAICtl) AIStatus() orchestrator.AIStatus { return f.status }

func (f *fakeAICtl) UpdateAISettings(_ context.Context, changes orchestrator.AISettingsView) (orchestrator.AIStatus, error) {
	if f.err != nil {
		return orchestrator.AIStatus{}, f.err
	}
	f.updated = append(f.updated, changes)
	return f.status, nil
}

type captureSender struct{ frames []Frame }

func (c *captureSender) send(f Frame) error {
	c.frames = append(c.frames, f)
	return nil
}

func TestHandleRequestGenerateQR(t *testing.T) {
	ctl := &fakeSessionCtl{}
	h := NewHandler(ctl, nil, nil)
	out := &captureSender{}

	h.handleRequest(context.Background(), out, Request{Type: "generateQR"})
	assert.Equal(t, 1, ctl.connects)
	assert.Empty(t, out.frames)

	ctl.connectErr = errors.New("boom")
	h.handleRequest(context.Background(), out, Request{Type: "generateQR"})
	require.Len(t, out.frames, 1)
	assert.Equal(t, "error", out.frames[0].Type)
}

func TestHandleRequestDisconnectAndClear(t *testing.T) {
	ctl := &fakeSessionCtl{}
	h := NewHandler(ctl, nil, nil)
	out := &captureSender{}

	h.handleRequest(context.Background(), out, Request{Type: "disconnect"})
	assert.Equal(t, 1, ctl.disconnects)
	require.Len(t, out.frames, 1)
	assert.Equal(t, "disconnected", out.frames[0].Type)

	h.handleRequest(context.Background(), out, Request{Type: "clearPhone"})
	assert.Equal(t, 1, ctl.cleared)
	assert.Equal(t, "phoneCleared", out.frames[1].Type)
}

func TestHandleRequestAISettings(t *testing.T) {
	ai := &fakeAICtl{status: orchestrator.AIStatus{Enabled: true, Provider: "gemini"}}
	h := NewHandler(&fakeSessionCtl{}, ai, nil)
	out := &captureSender{}

	h.handleRequest(context.Background(), out, Request{Type: "getAIStatus"})
	require.Len(t, out.frames, 1)
	assert.Equal(t, "aiStatus", out.frames[0].Type)

	h.handleRequest(context.Background(), out, Request{
		Type:     "updateAISettings",
		Settings: &orchestrator.AISettingsView{Enabled: true, Provider: "openai"},
	})
	require.Len(t, ai.updated, 1)
	assert.Equal(t, "openai", ai.updated[0].Provider)

	// Missing settings payload is rejected.
	h.handleRequest(context.Background(), out, Request{Type: "updateAISettings"})
	assert.Equal(t, "error", out.frames[len(out.frames)-1].Type)
}

func TestSetAIControllerBindsLate(t *testing.T) {
	h := NewHandler(&fakeSessionCtl{}, nil, nil)
	out := &captureSender{}

	// Before binding, AI requests are silently dropped.
	h.handleRequest(context.Background(), out, Request{Type: "getAIStatus"})
	assert.Empty(t, out.frames)

	// Concurrent readers during the bind must not race the swap.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			h.handleRequest(context.Background(), &captureSender{}, Request{Type: "getAIStatus"})
		}
		close(done)
	}()
	h.SetAIController(&fakeAICtl{status: orchestrator.AIStatus{Enabled: true}})
	<-done

	h.handleRequest(context.Background(), out, Request{Type: "getAIStatus"})
	require.Len(t, out.frames, 1)
	assert.Equal(t, "aiStatus", out.frames[0].Type)
}

func TestFrameForEvent(t *testing.T) {
	f := frameForEvent(session.Event{Type: session.EventQR, QRCode: "pairing-code"})
	require.Equal(t, "qr", f.Type)
	payload, ok := f.Payload.(map[string]string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(payload["qr"], "data:image/png;base64,"))

	assert.Equal(t, "ready", frameForEvent(session.Event{Type: session.EventReady}).Type)
	assert.Equal(t, "authExpired", frameForEvent(session.Event{Type: session.EventAuthExpired}).Type)

	f = frameForEvent(session.Event{Type: session.EventDisconnected, Reason: session.ReasonLoggedOut})
	assert.Equal(t, "disconnected", f.Type)
	assert.Equal(t, session.ReasonLoggedOut, f.Payload.(map[string]string)["reason"])

	f = frameForEvent(session.Event{Type: session.EventError, Err: errors.New("gave up")})
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, "gave up", f.Payload.(map[string]string)["message"])
}

func TestQRDataURL(t *testing.T) {
	url, err := qrDataURL("some-pairing-code")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Greater(t, len(url), 100)
}
