// Package monitoring carries the service's structured logger and pipeline
// counters.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Metrics holds pipeline counters. All counters are updated atomically.
type Metrics struct {
	CacheHits    int64
	CacheMisses  int64
	Fetches      int64
	FetchErrors  int64
	ForceRefresh int64
	StartTime    time.Time
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// IncrementCacheHit records a sprint read served from the store.
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss records a sprint read that required a fetch.
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementFetch records an outbound sprint fetch.
func (m *Metrics) IncrementFetch() {
	atomic.AddInt64(&m.Fetches, 1)
}

// IncrementFetchError records a failed outbound sprint fetch.
func (m *Metrics) IncrementFetchError() {
	atomic.AddInt64(&m.FetchErrors, 1)
}

// IncrementForceRefresh records a cache-bypassing read.
func (m *Metrics) IncrementForceRefresh() {
	atomic.AddInt64(&m.ForceRefresh, 1)
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"cache_hits":     atomic.LoadInt64(&m.CacheHits),
		"cache_misses":   atomic.LoadInt64(&m.CacheMisses),
		"fetches":        atomic.LoadInt64(&m.Fetches),
		"fetch_errors":   atomic.LoadInt64(&m.FetchErrors),
		"force_refresh":  atomic.LoadInt64(&m.ForceRefresh),
		"uptime_seconds": int64(time.Since(m.StartTime).Seconds()),
	}
}
