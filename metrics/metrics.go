// Package metrics exposes Prometheus collectors for the bot and the checker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gorzdrav"

// Metrics groups the bot's collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	watched       prometheus.Gauge
	notifications *prometheus.CounterVec
	apiErrors     *prometheus.CounterVec
	updates       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "cycles_total",
			Help:      "Availability check cycles by outcome",
		}, []string{"status"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of availability check cycles",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		watched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "watched_doctors",
			Help:      "Doctors with at least one watching user in the last cycle",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "notifications_total",
			Help:      "Availability notifications by outcome",
		}, []string{"status"}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Failed scheduling API calls by failure kind",
		}, []string{"kind"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Handled Telegram updates by kind",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.cycles, m.cycleDuration, m.watched, m.notifications, m.apiErrors, m.updates)
	return m
}

// ObserveCycle records a finished checker cycle.
func (m *Metrics) ObserveCycle(watched int, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.cycles.WithLabelValues(status).Inc()
	m.cycleDuration.Observe(d.Seconds())
	m.watched.Set(float64(watched))
}

// ObserveNotification records one notification attempt.
func (m *Metrics) ObserveNotification(sent bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.notifications.WithLabelValues(status).Inc()
}

// ObserveAPIError records a failed scheduling API call.
func (m *Metrics) ObserveAPIError(kind string) {
	if m == nil {
		return
	}
	m.apiErrors.WithLabelValues(kind).Inc()
}

// ObserveUpdate records a handled Telegram update.
func (m *Metrics) ObserveUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}
