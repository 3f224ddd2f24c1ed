package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Streak Metrics
var (
	// ActivitiesRecordedTotal tracks streak activity recordings by result
	// (extended, started, repeated).
	ActivitiesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_activities_recorded_total",
			Help: "Total streak activity recordings by result",
		},
		[]string{"result"},
	)

	// StreaksResetTotal tracks admin-initiated streak resets
	StreaksResetTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "Total admin-initiated streak resets",
		},
	)

	// RolesGrantedTotal tracks reward roles granted to members
	RolesGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_roles_granted_total",
			Help: "Total reward roles granted to members",
		},
	)

	// RolesRevokedTotal tracks reward roles revoked by the inactivity sweeper
	RolesRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_roles_revoked_total",
			Help: "Total reward roles revoked for inactivity",
		},
	)

	// CommandsTotal tracks bot command invocations by command and status
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Bot command invocations by command and status",
		},
		[]string{"command", "status"},
	)
)

// Persistence Metrics
var (
	// PersistenceOpsTotal tracks document store operations by operation and status
	PersistenceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_operations_total",
			Help: "Total document store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// PersistenceOpDuration tracks document store operation latency in seconds
	PersistenceOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persistence_operation_duration_seconds",
			Help:    "Document store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Sweeper Metrics
var (
	// SweepRunsTotal tracks inactivity sweep runs by status
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Inactivity sweep runs by status",
		},
		[]string{"status"},
	)

	// SweepDuration tracks full-sweep duration in seconds
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweeper_run_duration_seconds",
			Help:    "Inactivity sweep duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		},
	)

	// SweepMemberErrors tracks per-member failures during sweeps
	SweepMemberErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweeper_member_errors_total",
			Help: "Per-member failures during inactivity sweeps",
		},
	)
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Feed Metrics
var (
	// FeedConnectedClients tracks currently connected feed clients
	FeedConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_connected_clients",
			Help: "Currently connected streak feed WebSocket clients",
		},
	)

	// FeedConnectionsTotal tracks feed connection attempts by outcome
	FeedConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_connections_total",
			Help: "Streak feed connection attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FeedSlowClientsEvicted tracks clients evicted for unread backlog
	FeedSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_slow_clients_evicted_total",
			Help: "Feed clients evicted because their send buffer filled",
		},
	)
)
