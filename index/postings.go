package index

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

type postingsSub struct {
	it      roaring.IntPeekable
	base    model.DocID
	deleted *bitset.BitSet // nil = keep everything
}

// PostingsIterator is a forward-only cursor over the DocIDs of one
// (field, term) pair. For a multi-leaf term it is the concatenation of the
// per-leaf streams, each yielding local ID + leaf base, so composite IDs
// are strictly increasing and never repeat.
//
// Repositioning requires a fresh cursor from TermsIterator.Postings.
type PostingsIterator struct {
	subs []postingsSub
	cur  int
}

func (p *PostingsIterator) reset() {
	p.subs = p.subs[:0]
	p.cur = 0
}

// NextDoc returns the next DocID, or model.NoMoreDocs when the stream is
// exhausted. After NoMoreDocs, further calls are undefined.
func (p *PostingsIterator) NextDoc() model.DocID {
	for p.cur < len(p.subs) {
		s := &p.subs[p.cur]
		for s.it.HasNext() {
			local := s.it.Next()
			if s.deleted != nil && s.deleted.Test(uint(local)) {
				continue
			}
			return model.DocID(local) + s.base
		}
		p.cur++
	}
	return model.NoMoreDocs
}
