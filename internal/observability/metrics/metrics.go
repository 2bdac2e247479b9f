package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the chat agent.
type Metrics struct {
	inboundTotal      prometheus.Counter
	outboundTotal     prometheus.Counter
	repliesTotal      *prometheus.CounterVec
	reconnectsTotal   prometheus.Counter
	generationLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inboundTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realestate",
			Subsystem: "chat",
			Name:      "inbound_messages_total",
			Help:      "Total inbound customer messages accepted by the session",
		}),
		outboundTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realestate",
			Subsystem: "chat",
			Name:      "outbound_messages_total",
			Help:      "Total outbound messages sent through the session",
		}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realestate",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Total generated replies by source",
		}, []string{"source"}),
		reconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realestate",
			Subsystem: "session",
			Name:      "reconnect_attempts_total",
			Help:      "Total session reconnect attempts",
		}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realestate",
			Subsystem: "chat",
			Name:      "generation_latency_seconds",
			Help:      "Latency of AI reply generation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.repliesTotal, m.reconnectsTotal, m.generationLatency)
	return m
}

func (m *Metrics) ObserveInbound() {
	if m == nil {
		return
	}
	m.inboundTotal.Inc()
}

func (m *Metrics) ObserveOutbound() {
	if m == nil {
		return
	}
	m.outboundTotal.Inc()
}

// ObserveReply records one generated reply. Source is "ai" or "fallback".
func (m *Metrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.reconnectsTotal.Inc()
}

func (m *Metrics) ObserveGenerationLatency(seconds float64) {
	if m == nil {
		return
	}
	m.generationLatency.Observe(seconds)
}
