package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

// fieldPostings is the sorted term dictionary of one field within one
// segment, with one postings container per term.
type fieldPostings struct {
	terms    []model.Term
	postings []*roaring.Bitmap
}

// seekCeil returns the index of the smallest term >= target.
func (fp *fieldPostings) seekCeil(target model.Term) int {
	return sort.Search(len(fp.terms), func(i int) bool {
		return compareTerms(fp.terms[i], target) >= 0
	})
}

// Segment is an immutable run of documents. Deleted bits are the only
// mutable state and are guarded by the owning Writer; Reader snapshots
// copy them.
type Segment struct {
	id      model.SegmentID
	numDocs int
	fields  map[string]*fieldPostings
	deleted *bitset.BitSet // nil until the first delete
}

// ID returns the segment identifier.
func (s *Segment) ID() model.SegmentID { return s.id }

// NumDocs returns the number of documents in the segment, deleted included.
func (s *Segment) NumDocs() int { return s.numDocs }

// pendingSegment buffers documents until Flush seals them.
type pendingSegment struct {
	numDocs int
	fields  map[string]map[string]*roaring.Bitmap
	deleted *bitset.BitSet
}

func newPendingSegment() *pendingSegment {
	return &pendingSegment{fields: make(map[string]map[string]*roaring.Bitmap)}
}

func (p *pendingSegment) add(local uint32, fields map[string][]string) {
	for name, values := range fields {
		tm, ok := p.fields[name]
		if !ok {
			tm = make(map[string]*roaring.Bitmap)
			p.fields[name] = tm
		}
		for _, v := range values {
			rb, ok := tm[v]
			if !ok {
				rb = roaring.New()
				tm[v] = rb
			}
			rb.Add(local)
		}
	}
	p.numDocs++
}

// seal sorts the buffered dictionaries into an immutable segment.
func (p *pendingSegment) seal(id model.SegmentID) *Segment {
	seg := &Segment{
		id:      id,
		numDocs: p.numDocs,
		fields:  make(map[string]*fieldPostings, len(p.fields)),
		deleted: p.deleted,
	}
	for name, tm := range p.fields {
		fp := &fieldPostings{
			terms:    make([]model.Term, 0, len(tm)),
			postings: make([]*roaring.Bitmap, 0, len(tm)),
		}
		keys := make([]string, 0, len(tm))
		for t := range tm {
			keys = append(keys, t)
		}
		sort.Strings(keys)
		for _, t := range keys {
			fp.terms = append(fp.terms, model.Term(t))
			fp.postings = append(fp.postings, tm[t])
		}
		seg.fields[name] = fp
	}
	return seg
}
