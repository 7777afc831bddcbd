package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/model"
	"github.com/hupe1980/joingo/resource"
)

func costOf(n int64) func(docset.DocSet) int64 {
	return func(docset.DocSet) int64 { return n }
}

func setOf(docs ...model.DocID) docset.DocSet {
	return docset.NewSortedInt(docs)
}

func TestDocSetCache_HitMiss(t *testing.T) {
	c := New(1<<20, nil)

	computes := 0
	compute := func() (docset.DocSet, error) {
		computes++
		return setOf(1, 2), nil
	}

	set, hit, err := c.GetOrCompute("k", costOf(10), compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, set.Size())

	set2, hit, err := c.GetOrCompute("k", costOf(10), compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, set, set2)
	assert.Equal(t, 1, computes)

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestDocSetCache_ComputeError(t *testing.T) {
	c := New(1<<20, nil)

	wantErr := errors.New("boom")
	_, _, err := c.GetOrCompute("k", costOf(10), func() (docset.DocSet, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// Errors are not cached.
	set, hit, err := c.GetOrCompute("k", costOf(10), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, set.Size())
}

func TestDocSetCache_Eviction(t *testing.T) {
	c := New(100, nil)

	for i, key := range []Key{"a", "b", "c"} {
		_, _, err := c.GetOrCompute(key, costOf(40), func() (docset.DocSet, error) {
			return setOf(model.DocID(i)), nil
		})
		require.NoError(t, err)
	}

	// "a" is the LRU entry and must have been evicted to fit "c".
	_, hit, err := c.GetOrCompute("a", costOf(40), func() (docset.DocSet, error) {
		return setOf(0), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDocSetCache_OversizedNotAdmitted(t *testing.T) {
	c := New(100, nil)

	_, _, err := c.GetOrCompute("big", costOf(1000), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)

	_, hit, err := c.GetOrCompute("big", costOf(1000), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDocSetCache_ResourceDenied(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 50})
	require.True(t, rc.TryAcquireMemory(50)) // exhaust the budget

	c := New(1<<20, rc)
	set, _, err := c.GetOrCompute("k", costOf(40), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)
	require.NotNil(t, set)

	// Denied admission means the next lookup recomputes.
	_, hit, err := c.GetOrCompute("k", costOf(40), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)

	// Releasing the budget lets entries in again.
	rc.ReleaseMemory(50)
	_, _, err = c.GetOrCompute("k2", costOf(40), func() (docset.DocSet, error) {
		return setOf(2), nil
	})
	require.NoError(t, err)
	_, hit, err = c.GetOrCompute("k2", costOf(40), func() (docset.DocSet, error) {
		return setOf(2), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.EqualValues(t, 40, rc.MemoryUsage())
}

func TestDocSetCache_NilCache(t *testing.T) {
	var c *DocSetCache

	set, hit, err := c.GetOrCompute("k", costOf(1), func() (docset.DocSet, error) {
		return setOf(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, set.Size())
}

func TestDocSetCache_ConcurrentSameKey(t *testing.T) {
	c := New(1<<20, nil)

	var computes int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute("k", costOf(10), func() (docset.DocSet, error) {
				mu.Lock()
				computes++
				mu.Unlock()
				return setOf(1), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Request collapsing plus the cache keeps recomputation rare; after
	// the first fill it must never compute again.
	_, hit, err := c.GetOrCompute("k", costOf(10), func() (docset.DocSet, error) {
		mu.Lock()
		computes++
		mu.Unlock()
		return setOf(1), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	mu.Lock()
	assert.GreaterOrEqual(t, computes, 1)
	mu.Unlock()
}
