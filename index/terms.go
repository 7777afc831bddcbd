package index

import (
	"bytes"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

func compareTerms(a, b model.Term) int {
	return bytes.Compare(a, b)
}

// Terms is the composite term dictionary of one field across a reader's
// leaves.
type Terms struct {
	field  string
	leaves []*leafTerms
}

type leafTerms struct {
	fp      *fieldPostings
	base    model.DocID
	numDocs int
	deleted *bitset.BitSet
}

// Field returns the field name.
func (t *Terms) Field() string { return t.field }

// Iterator returns a cursor positioned before the first term.
func (t *Terms) Iterator() *TermsIterator {
	at := make([]int, len(t.leaves))
	for i := range at {
		at[i] = -1
	}
	return &TermsIterator{
		leaves: t.leaves,
		pos:    make([]int, len(t.leaves)),
		at:     at,
	}
}

// SeekStatus is the result of TermsIterator.SeekCeil.
type SeekStatus int

const (
	// SeekEnd means no term >= the target exists.
	SeekEnd SeekStatus = iota
	// SeekFound means the cursor is positioned exactly on the target.
	SeekFound
	// SeekNotFound means the cursor is positioned on the smallest term
	// greater than the target.
	SeekNotFound
)

// TermsIterator is a positioned enumeration over a composite term
// dictionary, interleaving the per-leaf sorted dictionaries.
//
// The cursor is positioned on at most one term at a time; DocFreq and
// Postings refer to the current term. It is not safe for concurrent use.
type TermsIterator struct {
	leaves []*leafTerms
	pos    []int // next candidate index per leaf
	at     []int // index of the current term per leaf, or -1
	term   model.Term
}

// Term returns the current term, or nil when unpositioned.
func (it *TermsIterator) Term() model.Term { return it.term }

// Next advances to the next term in lexicographic order. It returns false
// when the dictionary is exhausted.
func (it *TermsIterator) Next() (model.Term, bool) {
	// Consume the current term.
	for i, a := range it.at {
		if a >= 0 {
			it.pos[i] = a + 1
		}
	}
	return it.position()
}

// SeekCeil positions the cursor on the smallest term >= target.
func (it *TermsIterator) SeekCeil(target model.Term) SeekStatus {
	for i, lt := range it.leaves {
		it.pos[i] = lt.fp.seekCeil(target)
	}
	if _, ok := it.position(); !ok {
		return SeekEnd
	}
	if compareTerms(it.term, target) == 0 {
		return SeekFound
	}
	return SeekNotFound
}

// position finds the minimum candidate term and marks the leaves holding it.
func (it *TermsIterator) position() (model.Term, bool) {
	var minTerm model.Term
	for i, lt := range it.leaves {
		it.at[i] = -1
		if it.pos[i] >= len(lt.fp.terms) {
			continue
		}
		t := lt.fp.terms[it.pos[i]]
		if minTerm == nil || compareTerms(t, minTerm) < 0 {
			minTerm = t
		}
	}
	if minTerm == nil {
		it.term = nil
		return nil, false
	}
	for i, lt := range it.leaves {
		if it.pos[i] < len(lt.fp.terms) && compareTerms(lt.fp.terms[it.pos[i]], minTerm) == 0 {
			it.at[i] = it.pos[i]
		}
	}
	it.term = minTerm
	return minTerm, true
}

// DocFreq returns the document frequency of the current term across all
// leaves, deleted documents included.
func (it *TermsIterator) DocFreq() int {
	df := 0
	for i, a := range it.at {
		if a >= 0 {
			df += int(it.leaves[i].fp.postings[a].GetCardinality())
		}
	}
	return df
}

// Postings returns a cursor over the current term's documents, rebased
// into the composite ID space and starting before the first document.
// When filterDeleted is set, deleted documents are skipped silently.
//
// Passing a previous PostingsIterator as reuse recycles its storage; the
// reused cursor must no longer be in use.
func (it *TermsIterator) Postings(reuse *PostingsIterator, filterDeleted bool) *PostingsIterator {
	p := reuse
	if p == nil {
		p = &PostingsIterator{}
	}
	p.reset()
	for i, a := range it.at {
		if a < 0 {
			continue
		}
		lt := it.leaves[i]
		sub := postingsSub{
			it:   lt.fp.postings[a].Iterator(),
			base: lt.base,
		}
		if filterDeleted {
			sub.deleted = lt.deleted
		}
		p.subs = append(p.subs, sub)
	}
	return p
}
