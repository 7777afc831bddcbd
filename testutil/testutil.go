package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/joingo/index"
	"github.com/hupe1980/joingo/model"
)

// Doc is one test document: field name to term values.
type Doc map[string][]string

// BuildWriter indexes docs into a fresh writer, flushing a segment every
// segmentEvery documents so multi-segment paths get exercised.
// segmentEvery <= 0 leaves everything in one segment.
func BuildWriter(schema index.Schema, docs []Doc, segmentEvery int) (*index.Writer, []model.DocID, error) {
	w := index.NewWriter(schema)
	ids := make([]model.DocID, 0, len(docs))
	for i, d := range docs {
		id, err := w.AddDocument(d)
		if err != nil {
			return nil, nil, fmt.Errorf("doc %d: %w", i, err)
		}
		ids = append(ids, id)
		if segmentEvery > 0 && (i+1)%segmentEvery == 0 {
			w.Flush()
		}
	}
	return w, ids, nil
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // tests only
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Zipf returns a Zipfian-distributed value in [0, n): P(k) ∝ 1/k^s.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule). Real
// term distributions follow a power law, so joins built on Zipfian terms
// exercise both the rare-term and common-term routes.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// ZipfCorpus generates numDocs documents whose fromField and toField each
// carry one Zipfian-distributed term out of termCount.
func ZipfCorpus(r *RNG, numDocs, termCount int, fromField, toField string, s float64) []Doc {
	docs := make([]Doc, 0, numDocs)
	for i := 0; i < numDocs; i++ {
		docs = append(docs, Doc{
			fromField: {fmt.Sprintf("t%03d", r.Zipf(termCount, s))},
			toField:   {fmt.Sprintf("t%03d", r.Zipf(termCount, s))},
		})
	}
	return docs
}
