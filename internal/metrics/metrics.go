// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_active_sessions",
			Help: "Number of visitor sessions currently held in memory.",
		})

	SessionEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_session_evict_total",
			Help: "Cumulative number of sessions evicted from the store.",
		})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Form submits by outcome (accepted, rejected, forbidden).",
		}, []string{"result"})

	FieldValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_field_validations_total",
			Help: "Live field validations by field and outcome (valid, invalid).",
		}, []string{"field", "result"})

	BotSubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_bot_submissions_total",
			Help: "Submits whose user agent matched a known crawler.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveSessions,
		SessionEvictTotal,
		SubmissionsTotal,
		FieldValidationsTotal,
		BotSubmissionsTotal,
	)
}
