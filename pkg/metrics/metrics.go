package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallbooking_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hallbooking_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallbooking_booking_decisions_total",
		Help: "Committed booking status transitions.",
	}, []string{"status"})

	PaymentReviews = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallbooking_payment_reviews_total",
		Help: "Committed payment status transitions.",
	}, []string{"payment_status"})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallbooking_notifications_total",
		Help: "Notification attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	registerOnce sync.Once
)

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequests, HTTPDuration, BookingDecisions, PaymentReviews, Notifications)
	})
}
