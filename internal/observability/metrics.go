package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DeliveryOK     = "ok"
	DeliveryFailed = "failed"
)

var (
	// ChatEvents counts inbound chat events by kind.
	ChatEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistix_chat_events_total",
		Help: "Total inbound chat events by kind",
	}, []string{"kind"})

	// Deliveries counts outbound relay attempts by outcome.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistix_deliveries_total",
		Help: "Total outbound relay and broadcast deliveries by outcome",
	}, []string{"outcome"})

	// RequestsCreated counts submitted requests.
	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistix_requests_created_total",
		Help: "Total requests submitted through the user flow",
	})

	// StatusTransitions counts applied lifecycle transitions by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistix_status_transitions_total",
		Help: "Total applied request status transitions by target status",
	}, []string{"status"})

	// WebSocketConnections is the gauge of live chat connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assistix_websocket_connections",
		Help: "Number of active chat WebSocket connections",
	})
)
