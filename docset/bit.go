package docset

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// BitDocSet is a DocSet backed by a dense bitset of length maxDoc.
type BitDocSet struct {
	bits *bitset.BitSet
	size int
}

// NewBit wraps bits as a DocSet. The bitset is owned by the set afterwards.
func NewBit(bits *bitset.BitSet) *BitDocSet {
	return &BitDocSet{bits: bits, size: int(bits.Count())}
}

// BitSet exposes the backing bitset. Callers must not mutate it.
func (b *BitDocSet) BitSet() *bitset.BitSet { return b.bits }

// Size returns the exact cardinality.
func (b *BitDocSet) Size() int { return b.size }

// Intersects reports whether the sets share any DocID.
func (b *BitDocSet) Intersects(other DocSet) bool {
	switch o := other.(type) {
	case *BitDocSet:
		return b.bits.IntersectionCardinality(o.bits) > 0
	case *SortedIntDocSet:
		return o.intersectsBits(b.bits)
	default:
		it := other.Iterator()
		for d := it.NextDoc(); d != model.NoMoreDocs; d = it.NextDoc() {
			if b.bits.Test(uint(d)) {
				return true
			}
		}
		return false
	}
}

// Bits returns a membership view over the backing bitset.
func (b *BitDocSet) Bits() index.Bits {
	return index.BitsView(b.bits)
}

// AddAllTo unions the set into dst.
func (b *BitDocSet) AddAllTo(dst *bitset.BitSet) {
	dst.InPlaceUnion(b.bits)
}

// Iterator yields the set's DocIDs in ascending order.
func (b *BitDocSet) Iterator() Iterator {
	return &bitIterator{bits: b.bits}
}

type bitIterator struct {
	bits *bitset.BitSet
	next uint
}

func (it *bitIterator) NextDoc() model.DocID {
	i, ok := it.bits.NextSet(it.next)
	if !ok {
		return model.NoMoreDocs
	}
	it.next = i + 1
	return model.DocID(i)
}
