package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesTotal,
		telegramRateLimitTriggeredTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Counts incoming messages and callback queries by menu action.",
		},
		[]string{"kind", "action"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limited_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func IncTelegramUpdate(kind, action string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind), norm(action)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}
