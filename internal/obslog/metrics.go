package obslog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: no per-entity or per-player labels, so
// a malicious or buggy client can't blow up the label space.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moba_tick_duration_seconds",
		Help:    "Time spent executing one scheduler tick",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	tickOverrun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_tick_overrun_total",
		Help: "Ticks whose body exceeded the fixed tick interval",
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moba_entity_count",
		Help: "Current number of live entities",
	})

	outcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moba_outcomes_total",
		Help: "Outcomes drained by the processor, by kind",
	}, []string{"kind"}) // bounded: the ten Outcome variant names

	outcomeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_outcomes_dropped_total",
		Help: "Outcomes dropped because the cascade bound was reached",
	})

	cascadeOverflow = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_cascade_overflow_total",
		Help: "Drain calls that hit the cascade round limit",
	})

	commandRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moba_command_rejected_total",
		Help: "Inbound player commands rejected before mutating state",
	}, []string{"reason"}) // bounded: "rate_limit", "invalid", "cooldown", "dead"

	visionRebuild = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_vision_quadtree_rebuild_total",
		Help: "Quadtree rebuilds triggered by a static-world epoch change",
	})

	visionCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_vision_cache_hit_total",
		Help: "Vision shadow computations served from cache",
	})

	visionCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_vision_cache_miss_total",
		Help: "Vision shadow computations recomputed after a cache miss",
	})

	brokerReconnect = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_broker_reconnect_total",
		Help: "Broker reconnect attempts after a publish/connection failure",
	})

	httpRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moba_admin_http_request_duration_seconds",
		Help:    "Admin API HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moba_admin_ws_connections_active",
		Help: "Currently active admin debug WebSocket connections",
	})

	overlappingUnitPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moba_overlapping_unit_pairs",
		Help: "Unit pairs within the fixed crowding-probe radius this tick, from the broad-phase sweep",
	})

	adminRequestRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moba_admin_request_rejected_total",
		Help: "Admin HTTP/WebSocket requests rejected by the per-IP rate limiter",
	})
)

// RecordTick records one scheduler tick's wall-clock duration.
func RecordTick(seconds float64) {
	tickDuration.Observe(seconds)
}

// RecordTickOverrun increments the tick-overrun counter.
func RecordTickOverrun() {
	tickOverrun.Inc()
}

// SetEntityCount sets the live-entity gauge.
func SetEntityCount(n int) {
	entityCount.Set(float64(n))
}

// RecordOutcome increments the per-kind outcome counter.
func RecordOutcome(kind string) {
	outcomeTotal.WithLabelValues(kind).Inc()
}

// RecordOutcomeDropped increments the dropped-outcome counter.
func RecordOutcomeDropped() {
	outcomeDropped.Inc()
}

// RecordCascadeOverflow increments the cascade-overflow counter.
func RecordCascadeOverflow() {
	cascadeOverflow.Inc()
}

// RecordCommandRejected increments the rejected-command counter.
// reason must be one of: "rate_limit", "invalid", "cooldown", "dead".
func RecordCommandRejected(reason string) {
	commandRejected.WithLabelValues(reason).Inc()
}

// RecordVisionRebuild increments the quadtree-rebuild counter.
func RecordVisionRebuild() {
	visionRebuild.Inc()
}

// RecordVisionCache increments the cache hit or miss counter.
func RecordVisionCache(hit bool) {
	if hit {
		visionCacheHit.Inc()
		return
	}
	visionCacheMiss.Inc()
}

// RecordBrokerReconnect increments the broker-reconnect counter.
func RecordBrokerReconnect() {
	brokerReconnect.Inc()
}

// RecordHTTPRequest records admin API request latency.
func RecordHTTPRequest(method, route string, seconds float64) {
	httpRequestLatency.WithLabelValues(method, route).Observe(seconds)
}

// SetWSConnections sets the active admin WebSocket connection gauge.
func SetWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// SetOverlappingUnitPairs sets the crowding-probe overlap gauge.
func SetOverlappingUnitPairs(count int) {
	overlappingUnitPairs.Set(float64(count))
}

// RecordAdminRequestRejected increments the admin-surface rate-limit
// rejection counter. Kept distinct from RecordCommandRejected: that one
// counts in-simulation player command rejections (rate_limit/invalid/
// cooldown/dead), a different population than admin-dashboard throttling.
func RecordAdminRequestRejected() {
	adminRequestRejected.Inc()
}
