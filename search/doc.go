// Package search provides the query-time surface of a joingo core: the
// Searcher with its cached doc sets, a minimal query model, and the
// term-walking join executor.
//
// # Join
//
// JoinQuery relates two fields, possibly on different cores: the result is
// the set of to-side documents sharing at least one term value in the `to`
// field with the `from` field of any document matching the subquery. The
// executor walks the shared region of the two term dictionaries in
// lexicographic order and adaptively routes each term through cached set
// intersections or direct postings scans, depending on document frequency
// and accumulated result size. The result is exposed as a constant-score
// Filter.
//
// # Error Classification
//
// Errors carry one of three sentinel kinds: ErrBadRequest (unknown core or
// field), ErrIndexIO (term dictionary or postings read failures), and
// ErrAborted (caller cancellation). Nothing is recovered locally; acquired
// core leases are released on every exit path.
package search
