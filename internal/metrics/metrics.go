// Package metrics provides Prometheus metrics for the phone finder
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search modes
const (
	ModeDirect       = "direct"
	ModeConversation = "conversation"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	TurnsTotal          *prometheus.CounterVec
	ClarificationsTotal *prometheus.CounterVec
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	ImageLookupsTotal   *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonefinder_conversation_turns_total",
				Help: "Total number of conversation turns by reply kind",
			},
			[]string{"outcome"},
		),
		ClarificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonefinder_clarifications_total",
				Help: "Total number of clarifying questions asked",
			},
			[]string{"signal"},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonefinder_searches_total",
				Help: "Total number of catalog searches",
			},
			[]string{"mode", "status"},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phonefinder_search_duration_seconds",
				Help:    "Duration of catalog searches including image lookups",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"mode"},
		),
		ImageLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonefinder_image_lookups_total",
				Help: "Total number of image lookups by result",
			},
			[]string{"result"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "phonefinder_active_sessions",
				Help: "Number of live conversation sessions",
			},
		),
	}
}

// RecordTurn records the outcome of a conversation turn
func (m *Metrics) RecordTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordClarification records a clarifying question for a signal
func (m *Metrics) RecordClarification(signal string) {
	if m == nil {
		return
	}
	m.ClarificationsTotal.WithLabelValues(signal).Inc()
}

// RecordSearch records a catalog search with its status
func (m *Metrics) RecordSearch(mode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(mode, status).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordImageLookup records an image lookup result (hit, found, not_found, error)
func (m *Metrics) RecordImageLookup(result string) {
	if m == nil {
		return
	}
	m.ImageLookupsTotal.WithLabelValues(result).Inc()
}

// SetActiveSessions updates the live session gauge
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
