package monitor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.Notification("2a18")
	m.Notification("2a18")
	m.Notification("2a34")
	m.DecodeFailure("2a18", "too_short")
	m.DecodeFailure("2a52", "")
	m.RecordStored()
	m.Duplicate("record")
	m.SetPendingContexts(3)
	m.RACP("report_stored_records", "success", 200*time.Millisecond)
	m.RACP("abort_operation", "timeout", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsReceived.WithLabelValues("2a18")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsReceived.WithLabelValues("2a34")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("2a18", "too_short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("2a52", "other")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRejected.WithLabelValues("record")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ContextsPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RACPRequests.WithLabelValues("report_stored_records", "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RACPRoundTrip))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Notification("2a18")
		m.DecodeFailure("2a18", "too_short")
		m.RecordStored()
		m.Duplicate("context")
		m.SetPendingContexts(1)
		m.RACP("x", "y", time.Second)
	})
}
