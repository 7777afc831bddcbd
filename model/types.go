package model

import (
	"fmt"
	"math"
)

// SegmentID is the unique identifier for a segment within a core.
type SegmentID uint64

// Term is an immutable term byte sequence. Terms within a field are
// totally ordered by lexicographic byte comparison.
type Term []byte

// String returns the term bytes as a string.
func (t Term) String() string { return string(t) }

// DocID is a document identifier within one reader. For a composite reader
// it is the segment-local ID plus the segment base, so IDs are unique and
// ascending across segments.
//
// Valid DocIDs are non-negative and strictly less than the owning reader's
// MaxDoc. NoMoreDocs is reserved as the iterator exhaustion sentinel.
type DocID int32

// NoMoreDocs is returned by DocID iterators when the stream is exhausted.
// After it has been returned, further calls are undefined.
const NoMoreDocs DocID = math.MaxInt32

// Valid reports whether d can identify a stored document in a reader with
// the given maxDoc.
func (d DocID) Valid(maxDoc int) bool {
	return d >= 0 && int(d) < maxDoc && d != NoMoreDocs
}

// Location identifies a document inside a specific segment of a reader.
type Location struct {
	SegmentID SegmentID
	Local     DocID
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%d:%d)", l.SegmentID, l.Local)
}
