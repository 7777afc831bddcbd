package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
	"github.com/hupe1980/joingo/testutil"
)

func TestSearcher_MatchAll(t *testing.T) {
	s := newTestSearcher(t, joinSchema(), tinyDocs(), 0)

	set, err := s.DocSet(context.Background(), NewMatchAllQuery())
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{0, 1, 2, 3}, drainSet(set))
}

func TestSearcher_MatchAllExcludesDeleted(t *testing.T) {
	s := newTestSearcher(t, joinSchema(), tinyDocs(), 2, 0, 3)

	set, err := s.DocSet(context.Background(), NewMatchAllQuery())
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{1, 2}, drainSet(set))
}

func TestSearcher_TermQuery(t *testing.T) {
	docs := []testutil.Doc{
		{"f": {"a"}},
		{"f": {"a", "b"}},
		{"f": {"b"}},
	}
	s := newTestSearcher(t, joinSchema(), docs, 2)

	set, err := s.DocSet(context.Background(), NewTermQuery("f", "a"))
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{0, 1}, drainSet(set))

	set, err = s.DocSet(context.Background(), NewTermQuery("f", "zzz"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Size())

	set, err = s.DocSet(context.Background(), NewTermQuery("missing", "a"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Size())
}

func TestSearcher_TermQueryExcludesDeleted(t *testing.T) {
	docs := []testutil.Doc{
		{"f": {"a"}},
		{"f": {"a"}},
	}
	s := newTestSearcher(t, joinSchema(), docs, 0, 0)

	set, err := s.DocSet(context.Background(), NewTermQuery("f", "a"))
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{1}, drainSet(set))
}

func TestSearcher_DisjunctionQuery(t *testing.T) {
	docs := []testutil.Doc{
		{"f": {"a"}},
		{"f": {"b"}},
		{"f": {"c"}},
		{"f": {"a", "c"}},
	}
	s := newTestSearcher(t, joinSchema(), docs, 2)
	ctx := context.Background()

	q := NewDisjunctionQuery(NewTermQuery("f", "a"), NewTermQuery("f", "b"))
	assert.Equal(t, "(f:a OR f:b)", q.Key())
	assert.True(t, q.Cacheable())

	set, err := s.DocSet(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{0, 1, 3}, drainSet(set))

	// Overlapping clauses must not produce duplicates.
	set, err = s.DocSet(ctx, NewDisjunctionQuery(NewTermQuery("f", "a"), NewTermQuery("f", "c")))
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{0, 2, 3}, drainSet(set))

	set, err = s.DocSet(ctx, NewDisjunctionQuery())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Size())
}

func TestSearcher_DisjunctionExcludesDeleted(t *testing.T) {
	docs := []testutil.Doc{
		{"f": {"a"}},
		{"f": {"b"}},
	}
	s := newTestSearcher(t, joinSchema(), docs, 0, 0)

	set, err := s.DocSet(context.Background(), NewDisjunctionQuery(
		NewTermQuery("f", "a"), NewTermQuery("f", "b"),
	))
	require.NoError(t, err)
	assert.Equal(t, []model.DocID{1}, drainSet(set))
}

func TestSearcher_DocSetCached(t *testing.T) {
	s := newTestSearcher(t, joinSchema(), tinyDocs(), 0)
	ctx := context.Background()

	set1, err := s.DocSet(ctx, NewMatchAllQuery())
	require.NoError(t, err)
	set2, err := s.DocSet(ctx, NewMatchAllQuery())
	require.NoError(t, err)
	assert.Same(t, set1, set2, "second lookup is a cache hit")

	hits, misses := s.CacheStats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestSearcher_NoCacheConfigured(t *testing.T) {
	w, _, err := testutil.BuildWriter(joinSchema(), tinyDocs(), 0)
	require.NoError(t, err)
	s := NewSearcher("nocache", w.Reader(), joinSchema())

	set, err := s.DocSet(context.Background(), NewMatchAllQuery())
	require.NoError(t, err)
	assert.Equal(t, 4, set.Size())
}

func TestSearcher_BuildTermDocSetRepresentation(t *testing.T) {
	docs := make([]testutil.Doc, 0, 1200)
	for i := 0; i < 1200; i++ {
		d := testutil.Doc{"f": {"common"}}
		if i == 7 {
			d["f"] = append(d["f"], "rare")
		}
		docs = append(docs, d)
	}
	s := newTestSearcher(t, joinSchema(), docs, 500)

	terms := s.Reader().Terms("f")
	require.NotNil(t, terms)

	it := terms.Iterator()
	require.Equal(t, index.SeekFound, it.SeekCeil([]byte("common")))
	_, isBits := s.buildTermDocSet(it).(*docset.BitDocSet)
	assert.True(t, isBits, "frequent terms build dense sets")

	require.Equal(t, index.SeekFound, it.SeekCeil([]byte("rare")))
	rare := s.buildTermDocSet(it)
	_, isSorted := rare.(*docset.SortedIntDocSet)
	assert.True(t, isSorted, "rare terms build sorted sets")
	assert.Equal(t, []model.DocID{7}, drainSet(rare))
}
