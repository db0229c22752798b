package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	NotificationsReceived *prometheus.CounterVec
	DecodeFailures        *prometheus.CounterVec
	RecordsStored         prometheus.Counter
	DuplicatesRejected    *prometheus.CounterVec
	ContextsPending       prometheus.Gauge
	RACPRequests          *prometheus.CounterVec
	RACPRoundTrip         prometheus.Histogram
}

// NewMetrics registers the session metrics with reg under namespace.
// Pass a fresh prometheus.NewRegistry() per session in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_received_total",
			Help:      "Characteristic notifications received, by characteristic.",
		}, []string{"characteristic"}),
		DecodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Characteristic values that failed to decode, by characteristic and error kind.",
		}, []string{"characteristic", "kind"}),
		RecordsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glucose_records_stored_total",
			Help:      "Glucose measurement records accepted into the record store.",
		}),
		DuplicatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glucose_duplicates_total",
			Help:      "Records or contexts rejected for a duplicate sequence number.",
		}, []string{"what"}),
		ContextsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "glucose_contexts_pending",
			Help:      "Glucose contexts waiting for their measurement record.",
		}),
		RACPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "racp_requests_total",
			Help:      "Record Access Control Point requests, by opcode and outcome.",
		}, []string{"opcode", "outcome"}),
		RACPRoundTrip: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "racp_round_trip_seconds",
			Help:      "Time from RACP command write to its response indication.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) Notification(characteristic string) {
	if m == nil {
		return
	}
	m.NotificationsReceived.WithLabelValues(characteristic).Inc()
}

func (m *Metrics) DecodeFailure(characteristic, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	m.DecodeFailures.WithLabelValues(characteristic, kind).Inc()
}

func (m *Metrics) RecordStored() {
	if m == nil {
		return
	}
	m.RecordsStored.Inc()
}

func (m *Metrics) Duplicate(what string) {
	if m == nil {
		return
	}
	m.DuplicatesRejected.WithLabelValues(what).Inc()
}

func (m *Metrics) SetPendingContexts(n int) {
	if m == nil {
		return
	}
	m.ContextsPending.Set(float64(n))
}

// RACP records one finished request. elapsed is observed only for requests that got a response.
func (m *Metrics) RACP(opcode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RACPRequests.WithLabelValues(opcode, outcome).Inc()
	if elapsed > 0 {
		m.RACPRoundTrip.Observe(elapsed.Seconds())
	}
}
