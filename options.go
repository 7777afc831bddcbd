package joingo

import (
	"github.com/hupe1980/joingo/resource"
)

const defaultDocSetCacheBytes = 32 << 20

type options struct {
	logger           *Logger
	metrics          MetricsCollector
	rc               *resource.Controller
	docSetCacheBytes int64
	snapshotPath     string
}

// Option configures a Container.
type Option func(*options)

// WithLogger attaches a structured logger. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector attaches a metrics collector to every core.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithResourceController shares a resource controller across the
// container: doc-set cache memory is accounted against it and snapshot IO
// is throttled through it.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithDocSetCacheBytes sets the per-searcher doc-set cache capacity.
// Zero disables caching; doc sets are then rebuilt per lookup.
func WithDocSetCacheBytes(n int64) Option {
	return func(o *options) {
		o.docSetCacheBytes = n
	}
}

// WithSnapshotPath sets the snapshot root directory. Core.Snapshot writes
// to <path>/<core name>, and LoadCore with an empty dir reads from there.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}
