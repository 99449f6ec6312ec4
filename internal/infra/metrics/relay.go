package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionChecksTotal,
		fetchAttemptsTotal,
		deliveriesTotal,
	)
}

var (
	subscriptionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_subscription_checks_total",
			Help: "Subscription strategy outcomes.",
		},
		[]string{"strategy", "verdict"}, // verdict: 'subscribed', 'not_subscribed', 'undetermined'
	)

	fetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_fetch_attempts_total",
			Help: "Post fetch attempts per strategy.",
		},
		[]string{"strategy", "result"}, // result: 'ok', 'empty', 'error'
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Post deliveries by method and result.",
		},
		[]string{"method", "result"}, // method: 'forward', 'resend'
	)
)

func IncSubscriptionCheck(strategy, verdict string) {
	subscriptionChecksTotal.WithLabelValues(norm(strategy), norm(verdict)).Inc()
}

func IncFetchAttempt(strategy, result string) {
	fetchAttemptsTotal.WithLabelValues(norm(strategy), norm(result)).Inc()
}

func IncDelivery(method, result string) {
	deliveriesTotal.WithLabelValues(norm(method), norm(result)).Inc()
}
