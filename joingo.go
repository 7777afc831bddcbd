package joingo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/search"
)

// Container holds named cores and resolves cross-core joins.
type Container struct {
	mu     sync.RWMutex
	cores  map[string]*Core
	opts   options
	closed atomic.Bool
}

// New creates an empty Container.
func New(optFns ...Option) *Container {
	opts := options{docSetCacheBytes: defaultDocSetCacheBytes}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Container{
		cores: make(map[string]*Core),
		opts:  opts,
	}
}

// CreateCore registers an empty core under name.
func (c *Container) CreateCore(name string, schema index.Schema) (*Core, error) {
	return c.addCore(name, schema, index.NewWriter(schema))
}

// LoadCore registers a core restored from a snapshot directory. An empty
// dir resolves to <snapshot path>/<name> when the container has a
// snapshot path configured.
func (c *Container) LoadCore(ctx context.Context, name string, schema index.Schema, dir string) (*Core, error) {
	if dir == "" {
		var err error
		if dir, err = c.snapshotDir(name); err != nil {
			return nil, err
		}
	}
	w, err := index.LoadSnapshot(ctx, dir, schema, c.opts.rc)
	if err != nil {
		return nil, fmt.Errorf("%w: load core %q: %w", ErrIndexIO, name, err)
	}
	return c.addCore(name, schema, w)
}

func (c *Container) addCore(name string, schema index.Schema, w *index.Writer) (*Core, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cores[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrCoreExists, name)
	}

	core := &Core{
		name:      name,
		schema:    schema,
		container: c,
		writer:    w,
	}
	core.refresh(context.Background())
	c.cores[name] = core
	return core, nil
}

// Core returns the named core.
func (c *Container) Core(name string) (*Core, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	core, ok := c.cores[name]
	return core, ok
}

// LeaseCore implements search.CoreProvider. The lease pins the core's
// registered searcher for the duration of one join invocation; Close is
// idempotent.
func (c *Container) LeaseCore(name string) (search.CoreLease, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.RLock()
	core, ok := c.cores[name]
	c.mu.RUnlock()
	if !ok {
		return nil, &ErrUnknownCore{Name: name}
	}

	core.refs.Add(1)
	return &coreLease{core: core, searcher: core.Searcher()}, nil
}

// NewCrossCoreJoinQuery builds a join whose from side is evaluated on the
// named core, capturing the core's searcher open time so cached filters
// invalidate when it reopens.
func (c *Container) NewCrossCoreJoinQuery(q search.Query, from, to, fromIndex string) (*search.JoinQuery, error) {
	lease, err := c.LeaseCore(fromIndex)
	if err != nil {
		return nil, err
	}
	defer lease.Close() //nolint:errcheck

	jq := search.NewCrossCoreJoinQuery(q, from, to, fromIndex)
	jq.FromCoreOpenTime = lease.Searcher().OpenTime()
	return jq, nil
}

// Close marks the container closed. Outstanding leases stay valid until
// released; new cores and leases are refused.
func (c *Container) Close() error {
	c.closed.Store(true)
	return nil
}

// snapshotDir resolves the default snapshot directory for a core.
func (c *Container) snapshotDir(name string) (string, error) {
	if c.opts.snapshotPath == "" {
		return "", fmt.Errorf("%w: no snapshot path configured", ErrBadRequest)
	}
	return filepath.Join(c.opts.snapshotPath, name), nil
}

// Core is one named index: a schema, a writer, and the registered
// searcher over the writer's latest sealed snapshot.
type Core struct {
	name      string
	schema    index.Schema
	container *Container
	writer    *index.Writer

	mu       sync.RWMutex
	searcher *search.Searcher

	refs atomic.Int64
}

// Name returns the core name.
func (co *Core) Name() string { return co.name }

// Schema returns the core's schema.
func (co *Core) Schema() index.Schema { return co.schema }

// Writer returns the core's index writer.
func (co *Core) Writer() *index.Writer { return co.writer }

// Searcher returns the registered searcher. It reflects the index as of
// the last Refresh, not later writes.
func (co *Core) Searcher() *search.Searcher {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.searcher
}

// Refresh seals pending writes and registers a fresh searcher (with an
// empty doc-set cache) over the new snapshot.
func (co *Core) Refresh(ctx context.Context) *search.Searcher {
	s := co.refresh(ctx)
	if l := co.container.opts.logger; l != nil {
		l.LogRefresh(ctx, co.name, s.MaxDoc(), s.Reader().NumDeleted())
	}
	return s
}

func (co *Core) refresh(_ context.Context) *search.Searcher {
	opts := co.container.opts

	sOpts := []search.SearcherOption{
		search.WithProvider(co.container),
		search.WithOpenTime(time.Now().UnixNano()),
	}
	if opts.docSetCacheBytes > 0 {
		sOpts = append(sOpts, search.WithDocSetCache(opts.docSetCacheBytes, opts.rc))
	}
	if opts.logger != nil {
		sOpts = append(sOpts, search.WithLogger(opts.logger.WithCore(co.name).Logger))
	}
	if opts.metrics != nil {
		sOpts = append(sOpts, search.WithMetrics(opts.metrics))
	}

	s := search.NewSearcher(co.name, co.writer.Reader(), co.schema, sOpts...)

	co.mu.Lock()
	co.searcher = s
	co.mu.Unlock()
	return s
}

// Refs returns the number of outstanding leases, for diagnostics.
func (co *Core) Refs() int64 { return co.refs.Load() }

// NewJoinQuery builds a same-core join wrapped around q.
func (co *Core) NewJoinQuery(q search.Query, from, to string) *search.JoinQuery {
	return search.NewJoinQuery(q, from, to)
}

// Snapshot persists the core under the container's snapshot path.
func (co *Core) Snapshot(ctx context.Context) error {
	dir, err := co.container.snapshotDir(co.name)
	if err != nil {
		return err
	}
	return co.WriteSnapshot(ctx, dir)
}

// WriteSnapshot persists the core to dir, sealing pending writes first.
func (co *Core) WriteSnapshot(ctx context.Context, dir string) error {
	start := time.Now()
	err := co.writer.WriteSnapshot(ctx, dir, co.container.opts.rc)
	if err != nil {
		err = fmt.Errorf("%w: snapshot core %q: %w", ErrIndexIO, co.name, err)
	}
	if m := co.container.opts.metrics; m != nil {
		m.RecordSnapshot(time.Since(start), err)
	}
	if l := co.container.opts.logger; l != nil {
		l.LogSnapshot(ctx, co.name, dir, time.Since(start), err)
	}
	return err
}

type coreLease struct {
	core     *Core
	searcher *search.Searcher
	once     sync.Once
}

// Searcher returns the searcher pinned at lease time.
func (l *coreLease) Searcher() *search.Searcher { return l.searcher }

// Close releases the lease. Closing more than once is a no-op.
func (l *coreLease) Close() error {
	l.once.Do(func() {
		l.core.refs.Add(-1)
	})
	return nil
}
