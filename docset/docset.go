package docset

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// DocSet is an opaque set of DocIDs on one reader.
type DocSet interface {
	// Size returns the exact cardinality.
	Size() int

	// Intersects reports whether the sets share any DocID.
	Intersects(other DocSet) bool

	// Bits returns a random-access membership view, or nil when
	// constructing one would be wasteful for the representation.
	Bits() index.Bits

	// AddAllTo unions the set into a dense bitset.
	AddAllTo(dst *bitset.BitSet)

	// Iterator yields the set's DocIDs in ascending order.
	Iterator() Iterator
}

// Iterator streams DocIDs in ascending order, terminated by
// model.NoMoreDocs.
type Iterator interface {
	NextDoc() model.DocID
}

// Empty is the canonical empty DocSet.
var Empty DocSet = &SortedIntDocSet{}
