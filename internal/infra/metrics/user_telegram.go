package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		updatesReceivedTotal,
		telegramCommandsReceivedTotal,
		gateRejectionsTotal,
		activeUsers,
	)
}

var (
	updatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_updates_received_total",
			Help: "Inbound updates handed to the router, by kind.",
		},
		[]string{"kind"}, // 'message', 'callback', 'dropped'
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	gateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gate_rejections_total",
			Help: "Events stopped by a gate.",
		},
		[]string{"gate"}, // 'origin', 'dedupe', 'capacity', 'rate', 'subscription'
	)

	activeUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_users",
			Help: "Users with a message inside the inactivity window.",
		},
	)
)

func IncUpdate(kind string) {
	updatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncGateRejection(gate string) {
	gateRejectionsTotal.WithLabelValues(norm(gate)).Inc()
}

func SetActiveUsers(n int) {
	activeUsers.Set(float64(n))
}
