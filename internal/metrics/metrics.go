package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "elocation"

// Manager owns a private registry so tests can build as many as they need
type Manager struct {
	Registry          *prometheus.Registry
	HTTPRequests      *prometheus.CounterVec
	HTTPLatency       *prometheus.HistogramVec
	DeletionsDenied   *prometheus.CounterVec
	ModerationActions *prometheus.CounterVec
	BookingsCreated   prometheus.Counter
	BookingStatuses   *prometheus.CounterVec
}

func NewManager() *Manager {
	m := &Manager{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DeletionsDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_denied_total",
			Help:      "Deletions refused by the integrity guard, by entity.",
		}, []string{"entity"}),
		ModerationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Moderation actions applied, by action.",
		}, []string{"action"}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		}),
		BookingStatuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status changes, by previous and new status.",
		}, []string{"from", "to"}),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.DeletionsDenied,
		m.ModerationActions,
		m.BookingsCreated,
		m.BookingStatuses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// DeletionDenied and Moderated are nil-safe so services can run without metrics

func (m *Manager) DeletionDenied(entity string) {
	if m == nil {
		return
	}
	m.DeletionsDenied.WithLabelValues(entity).Inc()
}

func (m *Manager) Moderated(action string) {
	if m == nil {
		return
	}
	m.ModerationActions.WithLabelValues(action).Inc()
}

func (m *Manager) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Manager) BookingTransition(from, to string) {
	if m == nil {
		return
	}
	m.BookingStatuses.WithLabelValues(from, to).Inc()
}
