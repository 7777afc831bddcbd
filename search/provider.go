package search

// CoreProvider resolves core names for cross-core joins.
type CoreProvider interface {
	// LeaseCore returns a lease on the named core. Unknown names yield an
	// error wrapping ErrBadRequest.
	LeaseCore(name string) (CoreLease, error)
}

// CoreLease is a scoped reference to a core acquired for one join
// invocation. Close is idempotent and must be called on every exit path.
type CoreLease interface {
	// Searcher returns the core's registered searcher.
	Searcher() *Searcher

	// Close releases the lease.
	Close() error
}
