package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created, by kind",
		},
		[]string{"kind"},
	)

	BookingConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Booking attempts rejected because inventory was taken",
		},
		[]string{"reason"},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions, by target status and trigger",
		},
		[]string{"status", "trigger"},
	)

	PaymentSignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_signature_failures_total",
			Help: "Payment callbacks rejected for a bad signature",
		},
	)

	SweeperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_sweeper_runs_total",
			Help: "Expiry sweeper runs, by outcome",
		},
		[]string{"outcome"},
	)

	SweeperExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweeper_expired_total",
			Help: "Pending bookings expired by the sweeper",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
