package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engagement pipeline collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	GroupJoins           *prometheus.CounterVec
	AchievementsAwarded  *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
	NotificationsDropped *prometheus.CounterVec
	ActivitiesTracked    *prometheus.CounterVec
	SideEffectFailures   *prometheus.CounterVec
	CleanupRemoved       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GroupJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "group_joins_total",
			Help:      "Join attempts by outcome.",
		}, []string{"outcome"}),
		AchievementsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "achievements_awarded_total",
			Help:      "Achievements awarded by type.",
		}, []string{"type"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "notifications_sent_total",
			Help:      "Notifications persisted by type.",
		}, []string{"type"}),
		NotificationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "notifications_suppressed_total",
			Help:      "Notifications suppressed by preferences, by reason.",
		}, []string{"reason"}),
		ActivitiesTracked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "activities_tracked_total",
			Help:      "Activity log entries by type.",
		}, []string{"type"}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "side_effect_failures_total",
			Help:      "Post-commit side effects that failed, by event type.",
		}, []string{"event"}),
		CleanupRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Name:      "cleanup_removed_total",
			Help:      "Rows removed by scheduled cleanup, by job.",
		}, []string{"job"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.GroupJoins,
			m.AchievementsAwarded,
			m.NotificationsSent,
			m.NotificationsDropped,
			m.ActivitiesTracked,
			m.SideEffectFailures,
			m.CleanupRemoved,
		)
	}
	return m
}

func (m *Metrics) Join(outcome string) {
	if m != nil {
		m.GroupJoins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Award(achievementType string) {
	if m != nil {
		m.AchievementsAwarded.WithLabelValues(achievementType).Inc()
	}
}

func (m *Metrics) NotificationSent(notificationType string) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(notificationType).Inc()
	}
}

func (m *Metrics) NotificationSuppressed(reason string) {
	if m != nil {
		m.NotificationsDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Activity(activityType string) {
	if m != nil {
		m.ActivitiesTracked.WithLabelValues(activityType).Inc()
	}
}

func (m *Metrics) SideEffectFailed(event string) {
	if m != nil {
		m.SideEffectFailures.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) Cleanup(job string, removed int64) {
	if m != nil && removed > 0 {
		m.CleanupRemoved.WithLabelValues(job).Add(float64(removed))
	}
}
