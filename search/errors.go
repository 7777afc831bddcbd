package search

import "errors"

var (
	// ErrBadRequest classifies errors caused by the request itself:
	// unknown cross-core target, undeclared join field.
	ErrBadRequest = errors.New("bad request")

	// ErrIndexIO classifies failures reading the term dictionary,
	// postings, or persisted index state.
	ErrIndexIO = errors.New("index io")

	// ErrAborted classifies caller-initiated cancellation. Partial
	// results are never surfaced.
	ErrAborted = errors.New("aborted")
)
