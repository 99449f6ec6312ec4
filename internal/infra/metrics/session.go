package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionState,
		sessionReconnectsTotal,
	)
}

var (
	sessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_session_state",
			Help: "Supervisor state: 0 disconnected, 1 connecting, 2 running, 3 stopped.",
		},
	)

	sessionReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_session_reconnects_total",
			Help: "Connection attempts after a runtime disconnect.",
		},
	)
)

func SetSessionState(state int) {
	sessionState.Set(float64(state))
}

func IncSessionReconnect() {
	sessionReconnectsTotal.Inc()
}
