package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentLinksTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_links_total",
			Help: "Signed payment links handed out, by offer category.",
		},
		[]string{"category"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of confirmed payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncPaymentLink(category string) {
	paymentLinksTotal.WithLabelValues(norm(category)).Inc()
}

func AddPaymentRevenue(currency string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(amount)
}
