package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_class_sessions_total",
			Help: "Total number of class session transitions",
		},
		[]string{"event"},
	)

	SessionActiveSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutorhub_session_active_seconds",
			Help: "Live accumulated active seconds per in-progress session",
		},
		[]string{"session_id"},
	)

	TokensMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_tokens_moved_total",
			Help: "Total tokens moved through the ledger",
		},
		[]string{"type"},
	)

	TokenPurchasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorhub_token_purchases_total",
			Help: "Total number of completed token purchases",
		},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_withdrawals_total",
			Help: "Total number of withdrawal requests by terminal status",
		},
		[]string{"status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorhub_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSessionEvent(event string) {
	SessionsTotal.WithLabelValues(event).Inc()
}

func RecordTokensMoved(txType string, tokens int64) {
	if tokens < 0 {
		tokens = -tokens
	}
	TokensMovedTotal.WithLabelValues(txType).Add(float64(tokens))
}

func RecordTokenPurchase() {
	TokenPurchasesTotal.Inc()
}

func RecordWithdrawal(status string) {
	WithdrawalsTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
