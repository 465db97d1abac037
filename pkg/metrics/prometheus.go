// Package metrics provides Prometheus metrics for the arena tournament service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by arena.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Games
	gamesTotal   *prometheus.CounterVec
	gameDuration prometheus.Histogram
	gameTurns    prometheus.Histogram
	activeGames  prometheus.Gauge

	// Decisions
	decisionsTotal      *prometheus.CounterVec
	decisionTierMisses  *prometheus.CounterVec
	decisionBoundsFails prometheus.Counter
	forcedMoves         prometheus.Counter

	// Agents
	agentRequests *prometheus.CounterVec
	agentLatency  *prometheus.HistogramVec

	// Ratings and scheduling
	ratingUpdates      prometheus.Counter
	agentRating        *prometheus.GaugeVec
	persistenceErrors  *prometheus.CounterVec
	schedulerPending   prometheus.Gauge
	schedulerCompleted prometheus.Gauge

	// Game event bus
	eventQueueSize     prometheus.Gauge
	eventQueueCapacity prometheus.Gauge
	eventsPublished    prometheus.Counter
	eventsDropped      prometheus.Counter
	eventsConsumed     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "arena",
		subsystem:        "tournament",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.gamesTotal = m.counterVec("games_total", "Games finished, by outcome (win, draw, error)", "outcome")
	m.gameDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "game_duration_seconds",
		Help:        "Wall-clock duration of a game",
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		ConstLabels: m.constLabels,
	})
	m.gameTurns = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "game_turns",
		Help:        "Turns played per game",
		Buckets:     []float64{5, 10, 20, 50, 100, 150, 200, 300},
		ConstLabels: m.constLabels,
	})
	m.activeGames = m.gauge("active_games", "Games currently in flight")

	m.decisionsTotal = m.counterVec("decisions_total", "Resolved agent decisions by the tier that produced them", "tier")
	m.decisionTierMisses = m.counterVec("decision_tier_misses_total", "Parse tiers that did not yield a candidate", "tier")
	m.decisionBoundsFails = m.counter("decision_bounds_violations_total", "Candidates clamped to index 0 by the bounds check")
	m.forcedMoves = m.counter("forced_moves_total", "Turns with a single legal action applied without an agent")

	m.agentRequests = m.counterVec("agent_requests_total", "Agent calls by agent and status", "agent", "status")
	m.agentLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "agent_latency_seconds",
		Help:        "Latency of agent calls",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"agent"})

	m.ratingUpdates = m.counter("rating_updates_total", "Rating updates applied")
	m.agentRating = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "agent_rating",
		Help:        "Current Elo rating per agent",
		ConstLabels: m.constLabels,
	}, []string{"agent"})
	m.persistenceErrors = m.counterVec("persistence_errors_total", "Failed writes of persisted state, by store", "store")
	m.schedulerPending = m.gauge("scheduler_pending_units", "Matchup units not yet completed")
	m.schedulerCompleted = m.gauge("scheduler_completed_units", "Matchup units completed")

	m.eventQueueSize = m.gauge("event_queue_size", "Game events waiting for the consumer")
	m.eventQueueCapacity = m.gauge("event_queue_capacity", "Capacity of the game event queue")
	m.eventsPublished = m.counter("events_published_total", "Game events accepted by the queue")
	m.eventsDropped = m.counter("events_dropped_total", "Game events dropped because the queue was full or closed")
	m.eventsConsumed = m.counter("events_consumed_total", "Game events handled by the consumer")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordGame records a finished game.
func RecordGame(outcome string, turns int, elapsed time.Duration) {
	globalManager.gamesTotal.WithLabelValues(outcome).Inc()
	globalManager.gameTurns.Observe(float64(turns))
	globalManager.gameDuration.Observe(elapsed.Seconds())
}

// UpdateActiveGames sets the number of games in flight.
func UpdateActiveGames(count int) {
	globalManager.activeGames.Set(float64(count))
}

// RecordDecision counts a decision produced by tier.
func RecordDecision(tier string) {
	globalManager.decisionsTotal.WithLabelValues(tier).Inc()
}

// RecordDecisionTierMiss counts a tier that produced no candidate.
func RecordDecisionTierMiss(tier string) {
	globalManager.decisionTierMisses.WithLabelValues(tier).Inc()
}

// RecordDecisionBoundsViolation counts a clamped decision.
func RecordDecisionBoundsViolation() {
	globalManager.decisionBoundsFails.Inc()
}

// RecordForcedMove counts a single-option turn.
func RecordForcedMove() {
	globalManager.forcedMoves.Inc()
}

// RecordAgentRequest records one agent call.
func RecordAgentRequest(agent, status string, latency time.Duration) {
	globalManager.agentRequests.WithLabelValues(agent, status).Inc()
	globalManager.agentLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordRatingUpdate counts an applied rating update.
func RecordRatingUpdate() {
	globalManager.ratingUpdates.Inc()
}

// UpdateAgentRating sets the rating gauge for agent.
func UpdateAgentRating(agent string, rating float64) {
	globalManager.agentRating.WithLabelValues(agent).Set(rating)
}

// ResetAgentRatings drops every per-agent rating series.
func ResetAgentRatings() {
	globalManager.agentRating.Reset()
}

// RecordPersistenceError counts a failed write for store.
func RecordPersistenceError(store string) {
	globalManager.persistenceErrors.WithLabelValues(store).Inc()
}

// UpdateSchedulerProgress sets pending and completed unit gauges.
func UpdateSchedulerProgress(pending, completed int) {
	globalManager.schedulerPending.Set(float64(pending))
	globalManager.schedulerCompleted.Set(float64(completed))
}

// UpdateEventQueueSize sets the number of queued game events.
func UpdateEventQueueSize(size int) {
	globalManager.eventQueueSize.Set(float64(size))
}

// UpdateEventQueueCapacity sets the game event queue capacity.
func UpdateEventQueueCapacity(capacity int) {
	globalManager.eventQueueCapacity.Set(float64(capacity))
}

// RecordEventPublished counts an accepted game event.
func RecordEventPublished() {
	globalManager.eventsPublished.Inc()
}

// RecordEventDropped counts a dropped game event.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// RecordEventConsumed counts a handled game event.
func RecordEventConsumed() {
	globalManager.eventsConsumed.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
