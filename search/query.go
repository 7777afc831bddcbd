package search

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// Query defines a document set on one searcher.
type Query interface {
	fmt.Stringer

	// Key identifies the query for caching. Queries with equal keys must
	// define equal document sets on the same searcher.
	Key() string

	// Cacheable reports whether the query's doc set may be cached. Join
	// results are too large to cache cheaply; callers cache the enclosing
	// query instead.
	Cacheable() bool

	// DocSet evaluates the query, restricted to live documents. This is
	// the uncached path; go through Searcher.DocSet to use the cache.
	DocSet(ctx context.Context, s *Searcher) (docset.DocSet, error)
}

// MatchAllQuery matches every live document.
type MatchAllQuery struct{}

// NewMatchAllQuery creates a query matching every live document.
func NewMatchAllQuery() *MatchAllQuery { return &MatchAllQuery{} }

func (q *MatchAllQuery) String() string { return "*:*" }

// Key implements Query.
func (q *MatchAllQuery) Key() string { return "*:*" }

// Cacheable implements Query.
func (q *MatchAllQuery) Cacheable() bool { return true }

// DocSet implements Query.
func (q *MatchAllQuery) DocSet(_ context.Context, s *Searcher) (docset.DocSet, error) {
	maxDoc := s.MaxDoc()
	bs := bitset.New(uint(maxDoc))
	if maxDoc > 0 {
		bs.FlipRange(0, uint(maxDoc))
	}
	if live := s.LiveDocs(); live != nil {
		for i := 0; i < maxDoc; i++ {
			if !live.Get(model.DocID(i)) {
				bs.Clear(uint(i))
			}
		}
	}
	return docset.NewBit(bs), nil
}

// TermQuery matches live documents holding an exact term in a field.
type TermQuery struct {
	Field string
	Term  string
}

// NewTermQuery creates a query for one exact (field, term) pair.
func NewTermQuery(field, term string) *TermQuery {
	return &TermQuery{Field: field, Term: term}
}

func (q *TermQuery) String() string { return q.Field + ":" + q.Term }

// Key implements Query.
func (q *TermQuery) Key() string { return q.Field + ":" + q.Term }

// Cacheable implements Query.
func (q *TermQuery) Cacheable() bool { return true }

// DocSet implements Query.
func (q *TermQuery) DocSet(_ context.Context, s *Searcher) (docset.DocSet, error) {
	terms := s.Reader().Terms(q.Field)
	if terms == nil {
		return docset.Empty, nil
	}
	it := terms.Iterator()
	if it.SeekCeil(model.Term(q.Term)) != index.SeekFound {
		return docset.Empty, nil
	}
	return s.buildTermDocSet(it), nil
}

// DisjunctionQuery matches live documents matching any clause.
type DisjunctionQuery struct {
	Clauses []Query
}

// NewDisjunctionQuery creates the union of the given clauses.
func NewDisjunctionQuery(clauses ...Query) *DisjunctionQuery {
	return &DisjunctionQuery{Clauses: clauses}
}

func (q *DisjunctionQuery) String() string {
	return q.describe(Query.String)
}

// Key implements Query.
func (q *DisjunctionQuery) Key() string {
	return q.describe(Query.Key)
}

func (q *DisjunctionQuery) describe(part func(Query) string) string {
	s := "("
	for i, c := range q.Clauses {
		if i > 0 {
			s += " OR "
		}
		s += part(c)
	}
	return s + ")"
}

// Cacheable implements Query: the union is cacheable iff every clause is.
func (q *DisjunctionQuery) Cacheable() bool {
	for _, c := range q.Clauses {
		if !c.Cacheable() {
			return false
		}
	}
	return true
}

// DocSet implements Query. Clause sets go through the searcher's cache, so
// a disjunction reuses whatever its clauses already materialized.
func (q *DisjunctionQuery) DocSet(ctx context.Context, s *Searcher) (docset.DocSet, error) {
	if len(q.Clauses) == 0 {
		return docset.Empty, nil
	}

	bs := bitset.New(uint(s.MaxDoc()))
	for _, c := range q.Clauses {
		set, err := s.DocSet(ctx, c)
		if err != nil {
			return nil, err
		}
		set.AddAllTo(bs)
	}
	return docset.NewBit(bs), nil
}
