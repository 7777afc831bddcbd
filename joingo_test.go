package joingo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/search"
)

func productSchema() index.Schema {
	return index.NewSchema(
		index.FieldSpec{Name: "id"},
		index.FieldSpec{Name: "maker_id"},
	)
}

func TestContainer_CreateCore(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("products", productSchema())
	require.NoError(t, err)
	assert.Equal(t, "products", core.Name())

	_, err = c.CreateCore("products", productSchema())
	assert.ErrorIs(t, err, ErrCoreExists)

	got, ok := c.Core("products")
	require.True(t, ok)
	assert.Same(t, core, got)

	_, ok = c.Core("other")
	assert.False(t, ok)
}

func TestContainer_Closed(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())

	_, err := c.CreateCore("x", productSchema())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = c.LeaseCore("x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestContainer_LeaseUnknownCore(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.LeaseCore("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)

	var uc *ErrUnknownCore
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "ghost", uc.Name)
}

func TestCore_LeaseRefCounting(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("a", productSchema())
	require.NoError(t, err)

	l1, err := c.LeaseCore("a")
	require.NoError(t, err)
	l2, err := c.LeaseCore("a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, core.Refs())

	require.NoError(t, l1.Close())
	require.NoError(t, l1.Close()) // idempotent
	assert.EqualValues(t, 1, core.Refs())

	require.NoError(t, l2.Close())
	assert.EqualValues(t, 0, core.Refs())
}

func TestCore_RefreshVisibility(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("a", productSchema())
	require.NoError(t, err)

	_, err = core.Writer().AddDocument(map[string][]string{"id": {"m1"}})
	require.NoError(t, err)

	// The registered searcher predates the write.
	assert.Equal(t, 0, core.Searcher().MaxDoc())

	before := core.Searcher().OpenTime()
	s := core.Refresh(context.Background())
	assert.Equal(t, 1, s.MaxDoc())
	assert.Same(t, s, core.Searcher())
	assert.GreaterOrEqual(t, s.OpenTime(), before)
}

func TestContainer_SameCoreJoin(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("products", productSchema())
	require.NoError(t, err)

	w := core.Writer()
	_, err = w.AddDocument(map[string][]string{"id": {"m1"}})
	require.NoError(t, err)
	_, err = w.AddDocument(map[string][]string{"maker_id": {"m1"}})
	require.NoError(t, err)
	core.Refresh(context.Background())

	jq := core.NewJoinQuery(search.NewMatchAllQuery(), "maker_id", "id")
	set, stats, err := search.ExecuteJoin(context.Background(), core.Searcher(), jq)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Size())
	assert.Equal(t, 1, stats.ToTermHits)
}

func TestContainer_CrossCoreJoin(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	makers, err := c.CreateCore("makers", productSchema())
	require.NoError(t, err)
	products, err := c.CreateCore("products", productSchema())
	require.NoError(t, err)

	_, err = makers.Writer().AddDocument(map[string][]string{"id": {"m1"}})
	require.NoError(t, err)
	makers.Refresh(context.Background())

	_, err = products.Writer().AddDocument(map[string][]string{"maker_id": {"m1"}})
	require.NoError(t, err)
	_, err = products.Writer().AddDocument(map[string][]string{"maker_id": {"m2"}})
	require.NoError(t, err)
	products.Refresh(context.Background())

	jq, err := c.NewCrossCoreJoinQuery(search.NewMatchAllQuery(), "id", "maker_id", "makers")
	require.NoError(t, err)
	assert.Equal(t, makers.Searcher().OpenTime(), jq.FromCoreOpenTime)

	set, _, err := search.ExecuteJoin(context.Background(), products.Searcher(), jq)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Size())
	assert.EqualValues(t, 0, makers.Refs(), "lease released on all paths")
}

func TestContainer_CrossCoreJoin_KeyChangesOnReopen(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.CreateCore("makers", productSchema())
	require.NoError(t, err)

	jq1, err := c.NewCrossCoreJoinQuery(search.NewMatchAllQuery(), "id", "maker_id", "makers")
	require.NoError(t, err)

	makers, _ := c.Core("makers")
	makers.Refresh(context.Background())

	jq2, err := c.NewCrossCoreJoinQuery(search.NewMatchAllQuery(), "id", "maker_id", "makers")
	require.NoError(t, err)

	if jq1.FromCoreOpenTime != jq2.FromCoreOpenTime {
		assert.NotEqual(t, jq1.Key(), jq2.Key())
	}
}

func TestContainer_CrossCoreJoin_UnknownCore(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.NewCrossCoreJoinQuery(search.NewMatchAllQuery(), "id", "maker_id", "ghost")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestCore_SnapshotAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	metrics := &InMemoryMetrics{}

	c := New(WithMetricsCollector(metrics), WithLogger(NoopLogger()))
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("products", productSchema())
	require.NoError(t, err)
	_, err = core.Writer().AddDocument(map[string][]string{"id": {"m1"}})
	require.NoError(t, err)
	require.NoError(t, core.WriteSnapshot(ctx, dir))

	total, failed := metrics.Snapshots()
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 0, failed)

	c2 := New()
	t.Cleanup(func() { _ = c2.Close() })

	loaded, err := c2.LoadCore(ctx, "products", productSchema(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Searcher().MaxDoc())
}

func TestCore_SnapshotDefaultPath(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	c := New(WithSnapshotPath(root))
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("products", productSchema())
	require.NoError(t, err)
	_, err = core.Writer().AddDocument(map[string][]string{"id": {"m1"}})
	require.NoError(t, err)
	require.NoError(t, core.Snapshot(ctx))

	// An empty dir resolves against the configured snapshot path.
	c2 := New(WithSnapshotPath(root))
	t.Cleanup(func() { _ = c2.Close() })

	loaded, err := c2.LoadCore(ctx, "products", productSchema(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Searcher().MaxDoc())
}

func TestCore_SnapshotWithoutPathConfigured(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("a", productSchema())
	require.NoError(t, err)
	assert.ErrorIs(t, core.Snapshot(context.Background()), ErrBadRequest)

	_, err = c.LoadCore(context.Background(), "a2", productSchema(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestContainer_LoadCore_Missing(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.LoadCore(context.Background(), "x", productSchema(), t.TempDir())
	assert.ErrorIs(t, err, ErrIndexIO)
}

func TestMetrics_JoinRecorded(t *testing.T) {
	metrics := &InMemoryMetrics{}
	c := New(WithMetricsCollector(metrics))
	t.Cleanup(func() { _ = c.Close() })

	core, err := c.CreateCore("a", productSchema())
	require.NoError(t, err)
	_, err = core.Writer().AddDocument(map[string][]string{"id": {"m1"}, "maker_id": {"m1"}})
	require.NoError(t, err)
	core.Refresh(context.Background())

	jq := core.NewJoinQuery(search.NewMatchAllQuery(), "maker_id", "id")
	_, _, err = search.ExecuteJoin(context.Background(), core.Searcher(), jq)
	require.NoError(t, err)

	total, failed := metrics.Joins()
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 0, failed)

	_, _, err = search.ExecuteJoin(context.Background(), core.Searcher(),
		core.NewJoinQuery(search.NewMatchAllQuery(), "bogus", "id"))
	require.Error(t, err)

	total, failed = metrics.Joins()
	assert.EqualValues(t, 2, total)
	assert.EqualValues(t, 1, failed)
}
