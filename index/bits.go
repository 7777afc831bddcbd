package index

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

// Bits is a random-access membership predicate over a bounded DocID range.
type Bits interface {
	// Get reports whether doc is a member. Out-of-range IDs are not members.
	Get(doc model.DocID) bool

	// Len returns the bounded range; valid IDs are [0, Len).
	Len() int
}

// BitsView adapts a bitset to the Bits interface.
func BitsView(bs *bitset.BitSet) Bits {
	return bitsView{bs}
}

type bitsView struct {
	bs *bitset.BitSet
}

func (v bitsView) Get(doc model.DocID) bool {
	return doc >= 0 && v.bs.Test(uint(doc))
}

func (v bitsView) Len() int {
	return int(v.bs.Len())
}

// liveBits is the composite live-docs view over a reader's leaves. A leaf
// with no deletions is all-live within its range.
type liveBits struct {
	leaves []*Leaf
	maxDoc int
}

func (b liveBits) Get(doc model.DocID) bool {
	if doc < 0 || int(doc) >= b.maxDoc {
		return false
	}
	for _, l := range b.leaves {
		if int(doc) < int(l.base)+l.numDocs {
			if l.deleted == nil {
				return true
			}
			return !l.deleted.Test(uint(doc - l.base))
		}
	}
	return false
}

func (b liveBits) Len() int {
	return b.maxDoc
}
