package search

import "time"

// MetricsCollector receives query-time operational metrics.
type MetricsCollector interface {
	// RecordJoin is called after each join invocation, successful or not.
	RecordJoin(duration time.Duration, err error)

	// RecordDocSetCache is called for each doc-set cache lookup.
	RecordDocSetCache(hit bool)
}
