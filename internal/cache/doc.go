// Package cache implements the per-searcher doc-set cache: an LRU keyed by
// query or term, with request collapsing so concurrent lookups of the same
// key compute the set once, and optional memory accounting through a
// resource controller.
package cache
