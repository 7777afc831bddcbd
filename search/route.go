package search

// Thresholds steer the join executor's adaptive routing. They are cost
// heuristics only: any legal (non-negative) values produce the same result
// set, just along different accumulation paths.
type Thresholds struct {
	// MinDocFreqFrom is the minimum from-term document frequency for the
	// cached-intersection path; rarer terms are scanned directly against
	// the from set.
	MinDocFreqFrom int

	// MinDocFreqTo is the minimum to-term document frequency for the
	// cached-set route; rarer terms may be written straight into the
	// result bitset once it exists.
	MinDocFreqTo int

	// MaxSortedIntSize is the cumulative small-set size above which the
	// accumulator is promoted to a dense bitset. Kept below the usual
	// small-set ceiling because the deferred sets must be sorted and
	// deduplicated at finalization.
	MaxSortedIntSize int
}

// DefaultThresholds derives the thresholds from the two searchers' sizes.
func DefaultThresholds(fromMaxDoc, toMaxDoc int) Thresholds {
	return Thresholds{
		MinDocFreqFrom:   max(5, fromMaxDoc>>13),
		MinDocFreqTo:     max(5, toMaxDoc>>13),
		MaxSortedIntSize: max(10, toMaxDoc>>10),
	}
}

// accumRoute is the to-side accumulation strategy chosen for one term.
type accumRoute int

const (
	// routeCached obtains the term's doc set from the caching facade and
	// merges it into the accumulator.
	routeCached accumRoute = iota

	// routeDirect writes the term's postings straight into the result
	// bitset, bypassing set materialization.
	routeDirect
)

// pickRoute decides, for one to-term, whether the accumulator must first
// be promoted to a dense bitset and which route the term takes. It is a
// pure function of the accumulator state so the state machine can be
// tested in isolation.
//
// Promotion triggers when the term's contribution would push the deferred
// small sets past MaxSortedIntSize; the sets already deferred are folded
// in at finalization.
func pickRoute(dfTo, accumulatedDocs int, bitsPresent bool, deferredSets int, th Thresholds) (promote bool, route accumRoute) {
	promote = !bitsPresent && dfTo+accumulatedDocs > th.MaxSortedIntSize && deferredSets > 0

	bitsAfter := bitsPresent || promote
	if dfTo >= th.MinDocFreqTo || !bitsAfter {
		return promote, routeCached
	}
	return promote, routeDirect
}
