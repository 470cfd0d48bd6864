// Package metrics exposes Prometheus counters for the relay pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// CommandCounter counts slash commands and interactions.
	// Labels: endpoint (anonymous|configure|interactive), outcome
	CommandCounter *prometheus.CounterVec

	// ModerationCounter counts classifier calls.
	// Labels: status (ok|timeout|failed), decision (allow|block|unavailable)
	ModerationCounter *prometheus.CounterVec

	// ModerationDuration measures classifier latency in seconds.
	ModerationDuration prometheus.Histogram

	// MentionCounter counts mention notifications.
	// Labels: outcome (sent|failed)
	MentionCounter *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the metrics on reg. A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		CommandCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anonbot_commands_total",
				Help: "Slack commands handled by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		ModerationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anonbot_moderation_total",
				Help: "Moderation calls by classifier status and resulting decision",
			},
			[]string{"status", "decision"},
		),
		ModerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "anonbot_moderation_duration_seconds",
				Help:    "Duration of moderation calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		MentionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anonbot_mention_notifications_total",
				Help: "Alias mention notifications by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) Command(endpoint, outcome string) {
	m.CommandCounter.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) Moderation(status, decision string, elapsed time.Duration) {
	m.ModerationCounter.WithLabelValues(status, decision).Inc()
	m.ModerationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Mentions(sent, failed int) {
	if sent > 0 {
		m.MentionCounter.WithLabelValues("sent").Add(float64(sent))
	}
	if failed > 0 {
		m.MentionCounter.WithLabelValues("failed").Add(float64(failed))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
