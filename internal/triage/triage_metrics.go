package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the intake subsystem.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec
	Scores             prometheus.Histogram
	AssignmentsTotal   *prometheus.CounterVec
	AssignmentDistance prometheus.Histogram
	NotificationsTotal *prometheus.CounterVec
	NotifyDuration     prometheus.Histogram
}

// NewMetrics registers and returns intake metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardline_assessments_total",
			Help: "Total triage assessments by level.",
		}, []string{"level"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardline_triage_score",
			Help:    "Distribution of triage scores.",
			Buckets: prometheus.LinearBuckets(0, 1, MaxScore+1), // 0 .. 6
		}),
		AssignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardline_assignments_total",
			Help: "Total assignment attempts by outcome.",
		}, []string{"outcome"}),
		AssignmentDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardline_assignment_distance_miles",
			Help:    "Distance from patient to assigned hospital in miles.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1mi .. ~512mi
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardline_notifications_total",
			Help: "Total high-priority notifications by status.",
		}, []string{"status"}),
		NotifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardline_notification_duration_seconds",
			Help:    "Time to build and deliver a notification, including the handoff note.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}),
	}

	reg.MustRegister(
		m.AssessmentsTotal,
		m.Scores,
		m.AssignmentsTotal,
		m.AssignmentDistance,
		m.NotificationsTotal,
		m.NotifyDuration,
	)
	return m
}

// Hooks returns ServiceHooks that update the corresponding metrics.
func (m *Metrics) Hooks() ServiceHooks {
	return ServiceHooks{
		OnAssess: func(a Assessment) {
			m.AssessmentsTotal.WithLabelValues(string(a.Level)).Inc()
			m.Scores.Observe(float64(a.Score))
		},
		OnAssign: func(outcome Status, distanceMiles float64) {
			m.AssignmentsTotal.WithLabelValues(string(outcome)).Inc()
			if outcome == StatusAssigned {
				m.AssignmentDistance.Observe(distanceMiles)
			}
		},
		OnNotify: func(status string, duration float64) {
			m.NotificationsTotal.WithLabelValues(status).Inc()
			m.NotifyDuration.Observe(duration)
		},
	}
}
