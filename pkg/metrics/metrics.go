package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "documents_uploaded_total", Help: "Number of documents uploaded."},
	)
	SignaturesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "signatures_recorded_total", Help: "Number of signatures recorded."},
	)
	RequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "signature_requests_created_total", Help: "Number of signature requests created."},
	)
	RequestsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "signature_requests_completed_total", Help: "Number of signature requests completed."},
	)
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "notifications_sent_total", Help: "Number of notifications dispatched by kind."},
		[]string{"kind"},
	)
	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "notifications_failed_total", Help: "Number of notification dispatch failures by kind."},
		[]string{"kind"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "quicksign", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		DocumentsUploaded,
		SignaturesRecorded,
		RequestsCreated,
		RequestsCompleted,
		NotificationsSent,
		NotificationsFailed,
		RateLimitAllowed,
		RateLimitRejected,
	)
}
