package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Join("joined")
	m.Join("joined")
	m.Join("full")
	m.Cleanup("feed", 0)
	m.Cleanup("notifications", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupJoins.WithLabelValues("joined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GroupJoins.WithLabelValues("full")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CleanupRemoved.WithLabelValues("notifications")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CleanupRemoved.WithLabelValues("feed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Join("joined")
		m.Award("training_graduate")
		m.NotificationSent("new_message")
		m.NotificationSuppressed("quiet_hours")
		m.Activity("steps")
		m.SideEffectFailed("member_joined")
		m.Cleanup("feed", 4)
	})
}
