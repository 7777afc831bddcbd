package search

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// JoinQuery relates two fields: it matches every to-side document whose To
// field shares at least one term value with the From field of any document
// matching Q. The match is constant-score.
type JoinQuery struct {
	// From is the from-side field name.
	From string

	// To is the to-side field name.
	To string

	// FromIndex, when non-empty and distinct from the current core's
	// name, selects the core the from side is evaluated on.
	FromIndex string

	// Q defines the from-side document set.
	Q Query

	// FromCoreOpenTime is folded into Key so cached filters over a
	// cross-core join invalidate when the remote core reopens. The clock
	// source is whoever constructs the query.
	FromCoreOpenTime int64

	// Debug, when set, receives the join counters under the "join" label
	// after each successful invocation.
	Debug *Debug

	// thresholds overrides the derived thresholds; used by tests to pin
	// the accumulator path.
	thresholds *Thresholds
}

// NewJoinQuery creates a same-core join wrapped around an arbitrary
// subquery.
func NewJoinQuery(q Query, from, to string) *JoinQuery {
	return &JoinQuery{From: from, To: to, Q: q}
}

// NewCrossCoreJoinQuery creates a join whose from side is evaluated on the
// named core.
func NewCrossCoreJoinQuery(q Query, from, to, fromIndex string) *JoinQuery {
	return &JoinQuery{From: from, To: to, FromIndex: fromIndex, Q: q}
}

func (jq *JoinQuery) String() string {
	s := "{!join from=" + jq.From + " to=" + jq.To
	if jq.FromIndex != "" {
		s += " fromIndex=" + jq.FromIndex
	}
	return s + "}" + jq.Q.String()
}

// Key implements Query.
func (jq *JoinQuery) Key() string {
	return fmt.Sprintf("{!join from=%s to=%s fromIndex=%s openTime=%d}%s",
		jq.From, jq.To, jq.FromIndex, jq.FromCoreOpenTime, jq.Q.Key())
}

// Cacheable implements Query: join results are not cached (the set is too
// large to cache cheaply; callers cache the enclosing query instead).
func (jq *JoinQuery) Cacheable() bool { return false }

// DocSet implements Query by running the join against s as the to-side
// searcher.
func (jq *JoinQuery) DocSet(ctx context.Context, s *Searcher) (docset.DocSet, error) {
	set, _, err := ExecuteJoin(ctx, s, jq)
	return set, err
}

// Filter runs the join and wraps the result as a constant-score filter.
func (jq *JoinQuery) Filter(ctx context.Context, s *Searcher) (*Filter, error) {
	set, _, err := ExecuteJoin(ctx, s, jq)
	if err != nil {
		return nil, err
	}
	return NewFilter(set), nil
}

// JoinStats are the diagnostic counters of one join invocation.
type JoinStats struct {
	// FromSetSize is the number of documents matching Q.
	FromSetSize int
	// ToSetSize is the number of documents in the result.
	ToSetSize int

	FromTermCount int
	// FromTermTotalDf counts enumerated from-terms, mirroring the
	// original executor's accounting.
	FromTermTotalDf int64
	// FromTermDirectCount is the number of from-terms too rare for the
	// cached-intersection path.
	FromTermDirectCount int
	// FromTermHits is the number of from-terms intersecting Q.
	FromTermHits        int
	FromTermHitsTotalDf int64
	// ToTermHits is the number of intersecting from-terms also present in
	// the to field.
	ToTermHits        int
	ToTermHitsTotalDf int64
	// ToTermDirectCount is the number of to-terms written straight into
	// the result bitset.
	ToTermDirectCount int
	// SmallSetsDeferred is the number of small sets held back to be
	// merged at finalization.
	SmallSetsDeferred int
	// ToSetDocsAdded is the total number of documents collected into the
	// accumulator, duplicates included.
	ToSetDocsAdded int64
	// Promotions counts size-triggered promotions of the accumulator to a
	// dense bitset (0 or 1). Adopting a clone of a dense term set as the
	// result bitset is not counted.
	Promotions int

	Elapsed time.Duration
}

// ExecuteJoin runs jq with toSearcher as the to side and returns the
// result set together with the invocation's counters.
//
// On error the counters are discarded and no partial result is surfaced.
func ExecuteJoin(ctx context.Context, toSearcher *Searcher, jq *JoinQuery) (docset.DocSet, JoinStats, error) {
	start := time.Now()
	var stats JoinStats

	set, err := executeJoin(ctx, toSearcher, jq, &stats)

	stats.Elapsed = time.Since(start)
	if toSearcher.metrics != nil {
		toSearcher.metrics.RecordJoin(stats.Elapsed, err)
	}
	if err != nil {
		if toSearcher.logger != nil {
			toSearcher.logger.ErrorContext(ctx, "join failed",
				"from", jq.From, "to", jq.To, "fromIndex", jq.FromIndex, "error", err)
		}
		return nil, JoinStats{}, err
	}

	stats.ToSetSize = set.Size()
	jq.Debug.Add("join",
		DebugEntry{Key: "time", Value: stats.Elapsed.Milliseconds()},
		DebugEntry{Key: "fromSetSize", Value: stats.FromSetSize},
		DebugEntry{Key: "toSetSize", Value: stats.ToSetSize},
		DebugEntry{Key: "fromTermCount", Value: stats.FromTermCount},
		DebugEntry{Key: "fromTermTotalDf", Value: stats.FromTermTotalDf},
		DebugEntry{Key: "fromTermDirectCount", Value: stats.FromTermDirectCount},
		DebugEntry{Key: "fromTermHits", Value: stats.FromTermHits},
		DebugEntry{Key: "fromTermHitsTotalDf", Value: stats.FromTermHitsTotalDf},
		DebugEntry{Key: "toTermHits", Value: stats.ToTermHits},
		DebugEntry{Key: "toTermHitsTotalDf", Value: stats.ToTermHitsTotalDf},
		DebugEntry{Key: "toTermDirectCount", Value: stats.ToTermDirectCount},
		DebugEntry{Key: "smallSetsDeferred", Value: stats.SmallSetsDeferred},
		DebugEntry{Key: "toSetDocsAdded", Value: stats.ToSetDocsAdded},
	)
	if toSearcher.logger != nil {
		toSearcher.logger.DebugContext(ctx, "join completed",
			"from", jq.From, "to", jq.To, "fromIndex", jq.FromIndex,
			"fromSetSize", stats.FromSetSize, "toSetSize", stats.ToSetSize,
			"elapsed", stats.Elapsed)
	}
	return set, stats, nil
}

func executeJoin(ctx context.Context, toSearcher *Searcher, jq *JoinQuery, stats *JoinStats) (docset.DocSet, error) {
	// Resolve the from side. Same core reuses the searcher passed in so a
	// concurrent reopen cannot hand the two sides different snapshots.
	fromSearcher := toSearcher
	if jq.FromIndex != "" && jq.FromIndex != toSearcher.Name() {
		p := toSearcher.Provider()
		if p == nil {
			return nil, fmt.Errorf("%w: cross-core join to %q: no core provider", ErrBadRequest, jq.FromIndex)
		}
		lease, err := p.LeaseCore(jq.FromIndex)
		if err != nil {
			return nil, err
		}
		defer lease.Close() //nolint:errcheck
		fromSearcher = lease.Searcher()
	}

	if !fromSearcher.Schema().Has(jq.From) {
		return nil, fmt.Errorf("%w: join from: %w", ErrBadRequest, &index.ErrUnknownField{Field: jq.From})
	}
	if !toSearcher.Schema().Has(jq.To) {
		return nil, fmt.Errorf("%w: join to: %w", ErrBadRequest, &index.ErrUnknownField{Field: jq.To})
	}

	th := jq.thresholds
	if th == nil {
		d := DefaultThresholds(fromSearcher.MaxDoc(), toSearcher.MaxDoc())
		th = &d
	}

	fromSet, err := fromSearcher.DocSet(ctx, jq.Q)
	if err != nil {
		return nil, err
	}
	stats.FromSetSize = fromSet.Size()

	terms := fromSearcher.Reader().Terms(jq.From)
	toTerms := toSearcher.Reader().Terms(jq.To)
	if terms == nil || toTerms == nil {
		return docset.Empty, nil
	}

	var prefix []byte
	if spec, ok := fromSearcher.Schema().Field(jq.From); ok && spec.Prefix != "" {
		prefix = []byte(spec.Prefix)
	}

	// Make sure the from set is fast for random access before the direct
	// scans probe it.
	var fastForRandomSet index.Bits
	if th.MinDocFreqFrom > 0 {
		fastForRandomSet = fromSet.Bits()
		if fastForRandomSet == nil {
			bs := bitset.New(uint(fromSearcher.MaxDoc()))
			fromSet.AddAllTo(bs)
			fastForRandomSet = index.BitsView(bs)
		}
	}

	termsEnum := terms.Iterator()
	toTermsEnum := toTerms.Iterator()

	var term model.Term
	var ok bool
	if prefix == nil {
		term, ok = termsEnum.Next()
	} else if termsEnum.SeekCeil(prefix) != index.SeekEnd {
		term, ok = termsEnum.Term(), true
	}

	var resultBits *bitset.BitSet
	var resultList []*docset.SortedIntDocSet
	resultListDocs := 0

	var fromPostings, toPostings *index.PostingsIterator

	for ok {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		if prefix != nil && !bytes.HasPrefix(term, prefix) {
			break
		}

		stats.FromTermCount++
		stats.FromTermTotalDf++

		intersects := false
		freq := termsEnum.DocFreq()

		if freq < th.MinDocFreqFrom {
			stats.FromTermDirectCount++
			// Deleted docs need no filtering here: the membership view of
			// fromSet is already restricted to live matches of Q.
			fromPostings = termsEnum.Postings(fromPostings, false)
			for d := fromPostings.NextDoc(); d != model.NoMoreDocs; d = fromPostings.NextDoc() {
				if fastForRandomSet.Get(d) {
					intersects = true
					break
				}
			}
		} else {
			fromTermSet, err := fromSearcher.docSetForCursor(jq.From, termsEnum, th.MinDocFreqFrom)
			if err != nil {
				return nil, err
			}
			intersects = fromSet.Intersects(fromTermSet)
		}

		toEnd := false
		if intersects {
			stats.FromTermHits++
			stats.FromTermHitsTotalDf++

			switch toTermsEnum.SeekCeil(term) {
			case index.SeekEnd:
				// No to-side term can match anymore.
				toEnd = true

			case index.SeekFound:
				stats.ToTermHits++
				df := toTermsEnum.DocFreq()
				stats.ToTermHitsTotalDf += int64(df)

				promote, route := pickRoute(df, resultListDocs, resultBits != nil, len(resultList), *th)
				if promote {
					resultBits = bitset.New(uint(toSearcher.MaxDoc()))
					stats.Promotions++
				}

				switch route {
				case routeCached:
					toTermSet, err := toSearcher.docSetForCursor(jq.To, toTermsEnum, th.MinDocFreqTo)
					if err != nil {
						return nil, err
					}
					resultListDocs += toTermSet.Size()
					if resultBits != nil {
						toTermSet.AddAllTo(resultBits)
					} else if b, isBit := toTermSet.(*docset.BitDocSet); isBit {
						// Clone instead of re-copying bits set by set.
						resultBits = b.BitSet().Clone()
					} else {
						resultList = append(resultList, toTermSet.(*docset.SortedIntDocSet))
					}

				case routeDirect:
					stats.ToTermDirectCount++
					// Deleted docs must be filtered so none map into the
					// result.
					toPostings = toTermsEnum.Postings(toPostings, true)
					for d := toPostings.NextDoc(); d != model.NoMoreDocs; d = toPostings.NextDoc() {
						resultListDocs++
						resultBits.Set(uint(d))
					}
				}

			case index.SeekNotFound:
				// The to field skips this term; keep walking.
			}
		}

		if toEnd {
			break
		}
		term, ok = termsEnum.Next()
	}

	stats.SmallSetsDeferred = len(resultList)
	stats.ToSetDocsAdded = int64(resultListDocs)

	if resultBits != nil {
		for _, s := range resultList {
			s.AddAllTo(resultBits)
		}
		return docset.NewBit(resultBits), nil
	}
	if len(resultList) == 0 {
		return docset.Empty, nil
	}
	if len(resultList) == 1 {
		return resultList[0], nil
	}
	return docset.UnionSorted(resultList), nil
}
