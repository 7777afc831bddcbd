package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/internal/cache"
	"github.com/hupe1980/joingo/model"
	"github.com/hupe1980/joingo/resource"
)

// Searcher is the query-time view of one core: an immutable reader
// snapshot plus a doc-set cache. Searchers are safe for concurrent use;
// cursors derived from the reader are per-invocation.
type Searcher struct {
	name     string
	reader   *index.Reader
	schema   index.Schema
	cache    *cache.DocSetCache
	provider CoreProvider
	logger   *slog.Logger
	metrics  MetricsCollector
	openTime int64
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithDocSetCache gives the searcher a doc-set cache of the given capacity
// in bytes, accounted through rc when provided.
func WithDocSetCache(capacityBytes int64, rc *resource.Controller) SearcherOption {
	return func(s *Searcher) {
		s.cache = cache.New(capacityBytes, rc)
	}
}

// WithProvider wires the core provider used to resolve cross-core joins.
func WithProvider(p CoreProvider) SearcherOption {
	return func(s *Searcher) {
		s.provider = p
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		s.logger = l
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m MetricsCollector) SearcherOption {
	return func(s *Searcher) {
		s.metrics = m
	}
}

// WithOpenTime records when the searcher's snapshot was opened
// (nanoseconds; the clock source is the caller's).
func WithOpenTime(t int64) SearcherOption {
	return func(s *Searcher) {
		s.openTime = t
	}
}

// NewSearcher creates a Searcher over the given reader snapshot.
func NewSearcher(name string, r *index.Reader, schema index.Schema, optFns ...SearcherOption) *Searcher {
	s := &Searcher{
		name:   name,
		reader: r,
		schema: schema,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Name returns the owning core's name.
func (s *Searcher) Name() string { return s.name }

// Reader returns the underlying reader snapshot.
func (s *Searcher) Reader() *index.Reader { return s.reader }

// Schema returns the core's schema.
func (s *Searcher) Schema() index.Schema { return s.schema }

// MaxDoc returns the size of the reader's composite ID space.
func (s *Searcher) MaxDoc() int { return s.reader.MaxDoc() }

// LiveDocs returns the reader's live-docs predicate; nil means all live.
func (s *Searcher) LiveDocs() index.Bits { return s.reader.LiveDocs() }

// Provider returns the core provider, or nil when none is wired.
func (s *Searcher) Provider() CoreProvider { return s.provider }

// OpenTime returns the snapshot open time recorded at construction.
func (s *Searcher) OpenTime() int64 { return s.openTime }

// CacheStats returns cumulative doc-set cache hits and misses.
func (s *Searcher) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

// DocSet evaluates q against this searcher, consulting the doc-set cache
// for cacheable queries. The returned set contains live documents only.
func (s *Searcher) DocSet(ctx context.Context, q Query) (docset.DocSet, error) {
	if !q.Cacheable() {
		return q.DocSet(ctx, s)
	}

	set, hit, err := s.cache.GetOrCompute(cache.Key("q:"+q.Key()), s.docSetCost, func() (docset.DocSet, error) {
		return q.DocSet(ctx, s)
	})
	if s.metrics != nil {
		s.metrics.RecordDocSetCache(hit)
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

// docSetForCursor returns the doc set of the term the cursor is positioned
// on, restricted to live documents. Terms at or above minSetSizeCached go
// through the cache; rarer terms are materialized per call, which is
// cheaper than populating the cache for them.
func (s *Searcher) docSetForCursor(field string, it *index.TermsIterator, minSetSizeCached int) (docset.DocSet, error) {
	if it.DocFreq() < minSetSizeCached {
		return s.buildTermDocSet(it), nil
	}

	key := cache.Key(fmt.Sprintf("t:%s:%s", field, it.Term()))
	set, hit, err := s.cache.GetOrCompute(key, s.docSetCost, func() (docset.DocSet, error) {
		return s.buildTermDocSet(it), nil
	})
	if s.metrics != nil {
		s.metrics.RecordDocSetCache(hit)
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

// buildTermDocSet collects the current term's live documents, picking the
// dense representation when the term covers a meaningful fraction of the
// index.
func (s *Searcher) buildTermDocSet(it *index.TermsIterator) docset.DocSet {
	df := it.DocFreq()
	maxDoc := s.MaxDoc()

	if df > maxDoc>>6+5 {
		bs := bitset.New(uint(maxDoc))
		p := it.Postings(nil, true)
		for d := p.NextDoc(); d != model.NoMoreDocs; d = p.NextDoc() {
			bs.Set(uint(d))
		}
		return docset.NewBit(bs)
	}

	docs := make([]model.DocID, 0, df)
	p := it.Postings(nil, true)
	for d := p.NextDoc(); d != model.NoMoreDocs; d = p.NextDoc() {
		docs = append(docs, d)
	}
	return docset.NewSortedInt(docs)
}

// docSetCost estimates the resident size of a doc set in bytes.
func (s *Searcher) docSetCost(set docset.DocSet) int64 {
	switch v := set.(type) {
	case *docset.BitDocSet:
		return int64(v.BitSet().BinaryStorageSize())
	default:
		return int64(set.Size()*4 + 48)
	}
}
