package docset

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// SortedIntDocSet is a DocSet backed by an ascending, deduplicated DocID
// array.
type SortedIntDocSet struct {
	docs []model.DocID
}

// NewSortedInt wraps docs as a DocSet. The slice must be ascending and
// free of duplicates, and is owned by the set afterwards.
func NewSortedInt(docs []model.DocID) *SortedIntDocSet {
	return &SortedIntDocSet{docs: docs}
}

// Docs exposes the backing slice. Callers must not mutate it.
func (s *SortedIntDocSet) Docs() []model.DocID { return s.docs }

// Size returns the exact cardinality.
func (s *SortedIntDocSet) Size() int { return len(s.docs) }

// Intersects reports whether the sets share any DocID.
func (s *SortedIntDocSet) Intersects(other DocSet) bool {
	switch o := other.(type) {
	case *SortedIntDocSet:
		a, b := s.docs, o.docs
		if len(a) > len(b) {
			a, b = b, a
		}
		// Probe the smaller set against the larger with a shrinking
		// binary-search window.
		lo := 0
		for _, d := range a {
			i := lo + sort.Search(len(b)-lo, func(j int) bool { return b[lo+j] >= d })
			if i < len(b) && b[i] == d {
				return true
			}
			lo = i
		}
		return false
	case *BitDocSet:
		return s.intersectsBits(o.bits)
	default:
		it := other.Iterator()
		for d := it.NextDoc(); d != model.NoMoreDocs; d = it.NextDoc() {
			if s.contains(d) {
				return true
			}
		}
		return false
	}
}

func (s *SortedIntDocSet) intersectsBits(bits *bitset.BitSet) bool {
	for _, d := range s.docs {
		if bits.Test(uint(d)) {
			return true
		}
	}
	return false
}

func (s *SortedIntDocSet) contains(d model.DocID) bool {
	i := sort.Search(len(s.docs), func(j int) bool { return s.docs[j] >= d })
	return i < len(s.docs) && s.docs[i] == d
}

// Bits returns nil: materializing a dense view of a small set is left to
// the caller, which knows the target range.
func (s *SortedIntDocSet) Bits() index.Bits { return nil }

// AddAllTo unions the set into dst.
func (s *SortedIntDocSet) AddAllTo(dst *bitset.BitSet) {
	for _, d := range s.docs {
		dst.Set(uint(d))
	}
}

// Iterator yields the set's DocIDs in ascending order.
func (s *SortedIntDocSet) Iterator() Iterator {
	return &sliceIterator{docs: s.docs}
}

type sliceIterator struct {
	docs []model.DocID
	idx  int
}

func (it *sliceIterator) NextDoc() model.DocID {
	if it.idx >= len(it.docs) {
		return model.NoMoreDocs
	}
	d := it.docs[it.idx]
	it.idx++
	return d
}

// UnionSorted merges ascending, deduplicated inputs into one
// SortedIntDocSet.
func UnionSorted(sets []*SortedIntDocSet) *SortedIntDocSet {
	sz := 0
	for _, s := range sets {
		sz += len(s.docs)
	}
	docs := make([]model.DocID, 0, sz)
	for _, s := range sets {
		docs = append(docs, s.docs...)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })

	out := docs[:0]
	last := model.DocID(-1)
	for _, d := range docs {
		if d != last {
			out = append(out, d)
		}
		last = d
	}
	return &SortedIntDocSet{docs: out}
}
