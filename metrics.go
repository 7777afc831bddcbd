package joingo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/joingo/search"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
type MetricsCollector interface {
	search.MetricsCollector

	// RecordSnapshot is called after each snapshot write.
	RecordSnapshot(duration time.Duration, err error)
}

// InMemoryMetrics is a MetricsCollector backed by atomics. Useful for
// tests and for polling counters without an external system.
type InMemoryMetrics struct {
	joins         atomic.Int64
	joinErrors    atomic.Int64
	joinNanos     atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	snapshots     atomic.Int64
	snapshotFails atomic.Int64
}

// RecordJoin implements MetricsCollector.
func (m *InMemoryMetrics) RecordJoin(duration time.Duration, err error) {
	m.joins.Add(1)
	m.joinNanos.Add(int64(duration))
	if err != nil {
		m.joinErrors.Add(1)
	}
}

// RecordDocSetCache implements MetricsCollector.
func (m *InMemoryMetrics) RecordDocSetCache(hit bool) {
	if hit {
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (m *InMemoryMetrics) RecordSnapshot(_ time.Duration, err error) {
	m.snapshots.Add(1)
	if err != nil {
		m.snapshotFails.Add(1)
	}
}

// Joins returns the number of join invocations and how many failed.
func (m *InMemoryMetrics) Joins() (total, failed int64) {
	return m.joins.Load(), m.joinErrors.Load()
}

// JoinTime returns the cumulative time spent in joins.
func (m *InMemoryMetrics) JoinTime() time.Duration {
	return time.Duration(m.joinNanos.Load())
}

// DocSetCache returns doc-set cache hit and miss counts.
func (m *InMemoryMetrics) DocSetCache() (hits, misses int64) {
	return m.cacheHits.Load(), m.cacheMisses.Load()
}

// Snapshots returns the number of snapshot writes and how many failed.
func (m *InMemoryMetrics) Snapshots() (total, failed int64) {
	return m.snapshots.Load(), m.snapshotFails.Load()
}
