// Package metrics declares the Prometheus metrics for the game server.
//
// Naming convention: namespace_subsystem_name
//   - namespace: doodle (application-level grouping)
//   - subsystem: websocket, room, turn, rate_limit, circuit_breaker, redis
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "doodle",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "doodle",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	RoomPlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "doodle",
		Subsystem: "room",
		Name:      "players_count",
		Help:      "Number of players in each room",
	}, []string{"room_id"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total inbound/outbound events processed, by type and outcome",
	}, []string{"event_type", "status"})

	EventProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "doodle",
		Subsystem: "room",
		Name:      "event_processing_seconds",
		Help:      "Time a room's single consumer spends applying one event",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
	}, []string{"event_type"})

	TurnsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "turn",
		Name:      "completed_total",
		Help:      "Total turns completed, by end reason",
	}, []string{"reason"})

	GuessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "turn",
		Name:      "guesses_total",
		Help:      "Total guesses classified, by classification",
	}, []string{"classification"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "doodle",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current circuit breaker state (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total failed calls through a circuit breaker, including rejections while open",
	}, []string{"service"})

	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total requests that exceeded a rate limit",
	}, []string{"kind"})

	SessionStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doodle",
		Subsystem: "redis",
		Name:      "session_store_operations_total",
		Help:      "Total SessionStore write operations, by outcome",
	}, []string{"operation", "status"})
)

func IncConnection() { ActiveConnections.Inc() }
func DecConnection() { ActiveConnections.Dec() }
