package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travel",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	PriceResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "price_resolutions_total",
		Help:      "Price code resolutions by kind and outcome (found, missing, ambiguous).",
	}, []string{"kind", "outcome"})

	QuotesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "quotes_submitted_total",
		Help:      "Quotes written by quote submission or direct booking.",
	})

	ReservationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "reservations_created_total",
		Help:      "Reservations created by reservation type.",
	}, []string{"type"})

	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "confirmations_total",
		Help:      "Quote confirmations by outcome (created, existing).",
	}, []string{"outcome"})

	NotificationsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Name:      "notifications_handled_total",
		Help:      "Notification events handled by the worker, by event type and outcome.",
	}, []string{"type", "outcome"})
)
