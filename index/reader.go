package index

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

// Leaf is one segment's slice of a reader's composite ID space.
type Leaf struct {
	seg     *Segment
	base    model.DocID
	numDocs int
	deleted *bitset.BitSet // snapshot copy; nil if nothing deleted
}

// Base returns the composite DocID of the leaf's first document.
func (l *Leaf) Base() model.DocID { return l.base }

// MaxDoc returns the number of documents in the leaf, deleted included.
func (l *Leaf) MaxDoc() int { return l.numDocs }

// ID returns the backing segment's identifier.
func (l *Leaf) ID() model.SegmentID { return l.seg.id }

// LiveDocs returns the leaf-local live predicate, or nil when every
// document is live.
func (l *Leaf) LiveDocs() Bits {
	if l.deleted == nil {
		return nil
	}
	return leafLive{l}
}

type leafLive struct {
	l *Leaf
}

func (b leafLive) Get(doc model.DocID) bool {
	return doc >= 0 && int(doc) < b.l.numDocs && !b.l.deleted.Test(uint(doc))
}

func (b leafLive) Len() int { return b.l.numDocs }

// Reader is an immutable snapshot of a core's index.
type Reader struct {
	leaves []*Leaf
	maxDoc int
}

// MaxDoc returns the size of the composite ID space; DocIDs are [0, MaxDoc).
func (r *Reader) MaxDoc() int { return r.maxDoc }

// Leaves returns the reader's leaves in base order.
func (r *Reader) Leaves() []*Leaf { return r.leaves }

// NumDeleted returns the number of deleted documents in the snapshot.
func (r *Reader) NumDeleted() int {
	n := 0
	for _, l := range r.leaves {
		if l.deleted != nil {
			n += int(l.deleted.Count())
		}
	}
	return n
}

// LiveDocs returns the composite live-docs predicate, or nil when no
// document is deleted (absent means all live).
func (r *Reader) LiveDocs() Bits {
	for _, l := range r.leaves {
		if l.deleted != nil {
			return liveBits{leaves: r.leaves, maxDoc: r.maxDoc}
		}
	}
	return nil
}

// Terms returns the composite term dictionary for field, or nil when no
// leaf has terms for it.
func (r *Reader) Terms(field string) *Terms {
	var lts []*leafTerms
	for _, l := range r.leaves {
		fp, ok := l.seg.fields[field]
		if !ok || len(fp.terms) == 0 {
			continue
		}
		lts = append(lts, &leafTerms{
			fp:      fp,
			base:    l.base,
			numDocs: l.numDocs,
			deleted: l.deleted,
		})
	}
	if len(lts) == 0 {
		return nil
	}
	return &Terms{field: field, leaves: lts}
}
