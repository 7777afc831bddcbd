package search

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// DocIDIterator streams DocIDs in strictly increasing order, terminated by
// model.NoMoreDocs.
type DocIDIterator interface {
	NextDoc() model.DocID
}

// Filter is a constant-score view of a doc set, consumable one reader
// leaf at a time. Leaf iterators yield leaf-local DocIDs.
type Filter struct {
	set docset.DocSet
}

// NewFilter wraps a doc set as a filter.
func NewFilter(set docset.DocSet) *Filter {
	return &Filter{set: set}
}

// DocSet returns the filtered set in the composite ID space.
func (f *Filter) DocSet() docset.DocSet { return f.set }

// Leaf returns an iterator over the matches within leaf, rebased to
// leaf-local IDs, or nil when the leaf has no matches.
func (f *Filter) Leaf(leaf *index.Leaf) DocIDIterator {
	base := leaf.Base()
	limit := base + model.DocID(leaf.MaxDoc())

	switch s := f.set.(type) {
	case *docset.BitDocSet:
		bits := s.BitSet()
		first, ok := bits.NextSet(uint(base))
		if !ok || model.DocID(first) >= limit {
			return nil
		}
		return &leafBitIterator{bits: bits, next: first, base: base, limit: limit}

	case *docset.SortedIntDocSet:
		docs := s.Docs()
		lo := sort.Search(len(docs), func(i int) bool { return docs[i] >= base })
		hi := sort.Search(len(docs), func(i int) bool { return docs[i] >= limit })
		if lo == hi {
			return nil
		}
		return &leafSliceIterator{docs: docs[lo:hi], base: base}

	default:
		it := f.set.Iterator()
		var buffered model.DocID
		for {
			d := it.NextDoc()
			if d == model.NoMoreDocs || d >= limit {
				return nil
			}
			if d >= base {
				buffered = d
				break
			}
		}
		return &leafGenericIterator{it: it, base: base, limit: limit, buffered: buffered}
	}
}

type leafBitIterator struct {
	bits  *bitset.BitSet
	next  uint
	base  model.DocID
	limit model.DocID
}

func (it *leafBitIterator) NextDoc() model.DocID {
	i, ok := it.bits.NextSet(it.next)
	if !ok || model.DocID(i) >= it.limit {
		return model.NoMoreDocs
	}
	it.next = i + 1
	return model.DocID(i) - it.base
}

type leafSliceIterator struct {
	docs []model.DocID
	idx  int
	base model.DocID
}

func (it *leafSliceIterator) NextDoc() model.DocID {
	if it.idx >= len(it.docs) {
		return model.NoMoreDocs
	}
	d := it.docs[it.idx]
	it.idx++
	return d - it.base
}

type leafGenericIterator struct {
	it       docset.Iterator
	base     model.DocID
	limit    model.DocID
	buffered model.DocID
	done     bool
}

func (it *leafGenericIterator) NextDoc() model.DocID {
	if it.done {
		return model.NoMoreDocs
	}
	d := it.buffered
	next := it.it.NextDoc()
	if next == model.NoMoreDocs || next >= it.limit {
		it.done = true
	} else {
		it.buffered = next
	}
	return d - it.base
}
