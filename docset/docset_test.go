package docset

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/joingo/model"
)

func bitsOf(docs ...model.DocID) *BitDocSet {
	bs := bitset.New(128)
	for _, d := range docs {
		bs.Set(uint(d))
	}
	return NewBit(bs)
}

func sortedOf(docs ...model.DocID) *SortedIntDocSet {
	return NewSortedInt(docs)
}

func drain(s DocSet) []model.DocID {
	var out []model.DocID
	it := s.Iterator()
	for d := it.NextDoc(); d != model.NoMoreDocs; d = it.NextDoc() {
		out = append(out, d)
	}
	return out
}

func TestDocSet_Size(t *testing.T) {
	assert.Equal(t, 0, Empty.Size())
	assert.Equal(t, 3, bitsOf(1, 5, 9).Size())
	assert.Equal(t, 3, sortedOf(1, 5, 9).Size())
}

func TestDocSet_IteratorAscending(t *testing.T) {
	assert.Empty(t, drain(Empty))
	assert.Equal(t, []model.DocID{1, 5, 9}, drain(bitsOf(9, 1, 5)))
	assert.Equal(t, []model.DocID{1, 5, 9}, drain(sortedOf(1, 5, 9)))
}

func TestDocSet_IntersectsMatrix(t *testing.T) {
	tests := []struct {
		name string
		a, b DocSet
		want bool
	}{
		{"bit-bit overlap", bitsOf(1, 2, 3), bitsOf(3, 4), true},
		{"bit-bit disjoint", bitsOf(1, 2), bitsOf(3, 4), false},
		{"sorted-sorted overlap", sortedOf(1, 2, 3), sortedOf(3, 4), true},
		{"sorted-sorted disjoint", sortedOf(1, 2), sortedOf(3, 4), false},
		{"sorted-bit overlap", sortedOf(2, 7), bitsOf(7), true},
		{"sorted-bit disjoint", sortedOf(2, 7), bitsOf(8), false},
		{"bit-sorted overlap", bitsOf(7), sortedOf(2, 7), true},
		{"bit-sorted disjoint", bitsOf(8), sortedOf(2, 7), false},
		{"empty-any", Empty, bitsOf(1), false},
		{"any-empty", bitsOf(1), Empty, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a), "symmetry")
		})
	}
}

func TestDocSet_IntersectsLargeSorted(t *testing.T) {
	var a, b []model.DocID
	for i := 0; i < 1000; i++ {
		a = append(a, model.DocID(i*2)) // evens
		b = append(b, model.DocID(i*2+1))
	}
	assert.False(t, sortedOf(a...).Intersects(sortedOf(b...)))

	b[500] = a[750]
	assert.True(t, sortedOf(a...).Intersects(sortedOf(b[:501]...)))
}

func TestDocSet_AddAllTo(t *testing.T) {
	dst := bitset.New(128)
	bitsOf(1, 2).AddAllTo(dst)
	sortedOf(2, 64).AddAllTo(dst)

	assert.True(t, dst.Test(1))
	assert.True(t, dst.Test(2))
	assert.True(t, dst.Test(64))
	assert.EqualValues(t, 3, dst.Count())
}

func TestDocSet_Bits(t *testing.T) {
	b := bitsOf(3)
	require.NotNil(t, b.Bits())
	assert.True(t, b.Bits().Get(3))
	assert.False(t, b.Bits().Get(4))
	assert.False(t, b.Bits().Get(-1))

	// Small sets leave materialization to the caller.
	assert.Nil(t, sortedOf(3).Bits())
}

func TestUnionSorted(t *testing.T) {
	got := UnionSorted([]*SortedIntDocSet{
		sortedOf(5, 9),
		sortedOf(1, 5),
		sortedOf(2),
	})
	assert.Equal(t, []model.DocID{1, 2, 5, 9}, got.Docs())

	assert.Empty(t, UnionSorted(nil).Docs())
}
