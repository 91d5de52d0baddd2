// Package metrics records per-room runtime counters and reports them
// through Snapshot; internal/admin serves them over HTTP.
//
// Grounded on the teacher's server/metrics.go (atomic counters,
// Snapshot returning a JSON-friendly map).
package metrics

import "sync/atomic"

// RoomMetrics holds the atomic counters for one room's tick loop and
// input pipeline, matching spec.md's testable properties around input
// acceptance/rate-limiting and tick timing.
type RoomMetrics struct {
	TickCount          int64
	InputsAccepted     int64
	InputsRejected     int64
	RateLimited        int64
	TotalTickNs        int64
	SlowTicks          int64
	ConsecutiveSlow    int64
	CriticalSlowEvents int64
	WormWormKills      int64
	FoodConsumed       int64
	FoodRespawned      int64
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRejected()      { atomic.AddInt64(&m.InputsRejected, 1) }
func (m *RoomMetrics) IncRateLimited()   { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncKills()         { atomic.AddInt64(&m.WormWormKills, 1) }
func (m *RoomMetrics) AddFoodConsumed(n int64) { atomic.AddInt64(&m.FoodConsumed, n) }
func (m *RoomMetrics) AddFoodRespawned(n int64) { atomic.AddInt64(&m.FoodRespawned, n) }

// AddTick records one tick's phase-timer total and tracks the
// consecutive-slow-tick streak spec.md §4.8 names.
func (m *RoomMetrics) AddTick(ns int64, slowThresholdMs float64, maxConsecSlow int64) (wasSlow, wasCritical bool) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)

	ms := float64(ns) / 1e6
	if ms > slowThresholdMs {
		atomic.AddInt64(&m.SlowTicks, 1)
		streak := atomic.AddInt64(&m.ConsecutiveSlow, 1)
		if streak >= maxConsecSlow {
			atomic.AddInt64(&m.CriticalSlowEvents, 1)
			return true, true
		}
		return true, false
	}
	atomic.StoreInt64(&m.ConsecutiveSlow, 0)
	return false, false
}

// Snapshot returns a JSON-friendly read-only copy for the /metrics
// endpoint.
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":           tick,
		"inputs_accepted":      atomic.LoadInt64(&m.InputsAccepted),
		"inputs_rejected":      atomic.LoadInt64(&m.InputsRejected),
		"rate_limited":         atomic.LoadInt64(&m.RateLimited),
		"avg_tick_ms":          avgMs,
		"slow_ticks":           atomic.LoadInt64(&m.SlowTicks),
		"critical_slow_events": atomic.LoadInt64(&m.CriticalSlowEvents),
		"worm_worm_kills":      atomic.LoadInt64(&m.WormWormKills),
		"food_consumed":        atomic.LoadInt64(&m.FoodConsumed),
		"food_respawned":       atomic.LoadInt64(&m.FoodRespawned),
	}
}
