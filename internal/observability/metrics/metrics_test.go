package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestObserveNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveInbound()
		m.ObserveOutbound()
		m.ObserveReply("ai")
		m.ObserveReconnect()
		m.ObserveGenerationLatency(0.2)
	})
}

func TestObserveCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveInbound()
	m.ObserveInbound()
	m.ObserveReply("fallback")
	m.ObserveReconnect()

	families, err := reg.Gather()
	assert.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if metric.GetCounter() != nil {
				counts[mf.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), counts["realestate_chat_inbound_messages_total"])
	assert.Equal(t, float64(1), counts["realestate_chat_replies_total"])
	assert.Equal(t, float64(1), counts["realestate_session_reconnect_attempts_total"])
}
