// Package joingo provides an embedded inverted-index engine with a
// relational join filter for Go.
//
// A Container holds named cores. Each core is a segmented inverted index
// with a schema, a writer, and a registered searcher over an immutable
// snapshot. The join filter relates two fields — possibly on different
// cores — by walking their shared term values and collecting the to-side
// documents, constant-score.
//
// # Quick Start
//
//	c := joingo.New()
//	core, _ := c.CreateCore("products", index.NewSchema(
//	    index.FieldSpec{Name: "maker_id"},
//	    index.FieldSpec{Name: "id"},
//	))
//	core.Writer().AddDocument(map[string][]string{"id": {"m1"}})
//	core.Writer().AddDocument(map[string][]string{"maker_id": {"m1"}})
//	core.Refresh(ctx)
//
//	jq := search.NewJoinQuery(search.NewMatchAllQuery(), "maker_id", "id")
//	set, _, _ := search.ExecuteJoin(ctx, core.Searcher(), jq)
//
// # Cross-Core Joins
//
// A join whose from side lives on another core names it via FromIndex;
// the container resolves the name and leases the core for the duration of
// the invocation:
//
//	jq, _ := c.NewCrossCoreJoinQuery(q, "maker_id", "id", "makers")
//	filter, _ := jq.Filter(ctx, productsCore.Searcher())
//
// # Durability Model
//
// Cores persist through snapshots: zstd-framed segment files plus a JSON
// manifest, written atomically. Writes resume from a loaded snapshot.
//
//	core.WriteSnapshot(ctx, "./data/products")
//	core, _ = c.LoadCore(ctx, "products", schema, "./data/products")
package joingo
