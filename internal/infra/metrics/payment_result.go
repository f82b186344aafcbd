package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentResultRequests,
		PaymentResultDuration,
		PaymentDMTotal,
	)
}

var (
	// Count of result callbacks grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_request|signature_mismatch|error
	PaymentResultRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_result_requests_total",
			Help: "Count of /api/robokassa/result calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of the result handler grouped by result.
	PaymentResultDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_result_duration_seconds",
			Help:    "Duration of /api/robokassa/result handler in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"result"},
	)

	// Telegram DMs grouped by audience/kind and delivery status.
	// kind: manager_new_order|manager_payment_success|customer_success|customer_fail|...
	// status: sent|error|skipped
	PaymentDMTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_dm_total",
			Help: "Telegram DMs about orders and payments by kind and delivery status.",
		},
		[]string{"kind", "status"},
	)
)

func ObserveResult(result, reason string, seconds float64) {
	PaymentResultRequests.WithLabelValues(norm(result), norm(reason)).Inc()
	PaymentResultDuration.WithLabelValues(norm(result)).Observe(seconds)
}

func IncDM(kind, status string) {
	PaymentDMTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}
