package monitoring

import (
	"context"

	"review-reconciler/core/models"

	"github.com/prometheus/client_golang/prometheus"
)

// PollMetrics exports poll activity for Prometheus.
// It is a poller observer and is safe for concurrent use.
type PollMetrics struct {
	attempts           *prometheus.CounterVec
	artifacts          *prometheus.CounterVec
	results            *prometheus.CounterVec
	attemptsPerSession prometheus.Histogram
}

// NewPollMetrics creates the collectors and registers them with reg
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	m := &PollMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_poll_attempts_total",
			Help: "Poll attempts by whether both artifacts were complete",
		}, []string{"complete"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_artifact_fetches_total",
			Help: "Artifact fetches by key and observed state",
		}, []string{"key", "state"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_poll_results_total",
			Help: "Finished loads and polls by status",
		}, []string{"status"}),
		attemptsPerSession: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_poll_session_attempts",
			Help:    "Attempts used by a session before it finished",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30},
		}),
	}
	reg.MustRegister(m.attempts, m.artifacts, m.results, m.attemptsPerSession)
	return m
}

// ObserveAttempt counts one attempt and its two fetches
func (m *PollMetrics) ObserveAttempt(_ context.Context, _ models.PollSession, attempt models.Attempt) {
	complete := "false"
	if attempt.Complete {
		complete = "true"
	}
	m.attempts.WithLabelValues(complete).Inc()
	m.artifacts.WithLabelValues(attempt.Review.Key, string(attempt.Review.State)).Inc()
	m.artifacts.WithLabelValues(attempt.Debt.Key, string(attempt.Debt.State)).Inc()
}

// ObserveResult counts a finished session
func (m *PollMetrics) ObserveResult(_ context.Context, result models.Result) {
	m.results.WithLabelValues(string(result.Status)).Inc()
	m.attemptsPerSession.Observe(float64(result.Session.AttemptsUsed))
}
