package index

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/joingo/model"
)

// Writer builds and mutates the segmented index of one core.
//
// Writer is safe for concurrent use. Reader snapshots taken while writes
// continue remain stable: sealed postings are immutable and deleted bits
// are copied at snapshot time.
type Writer struct {
	mu        sync.Mutex
	schema    Schema
	segments  []*Segment
	pending   *pendingSegment
	nextSegID model.SegmentID
	numDocs   int
}

// NewWriter creates a Writer for the given schema.
func NewWriter(schema Schema) *Writer {
	return &Writer{
		schema:  schema,
		pending: newPendingSegment(),
	}
}

// Schema returns the writer's schema.
func (w *Writer) Schema() Schema { return w.schema }

// AddDocument indexes one document and returns its composite DocID.
// Every field must be declared in the schema.
func (w *Writer) AddDocument(fields map[string][]string) (model.DocID, error) {
	for name := range fields {
		if !w.schema.Has(name) {
			return 0, &ErrUnknownField{Field: name}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.numDocs >= int(model.NoMoreDocs)-1 {
		return 0, fmt.Errorf("index full: %d documents", w.numDocs)
	}

	doc := model.DocID(w.numDocs)
	w.pending.add(uint32(w.numDocs-w.sealedDocsLocked()), fields)
	w.numDocs++
	return doc, nil
}

// Delete marks doc as deleted. Deleting an already-deleted or out-of-range
// document is an error.
func (w *Writer) Delete(doc model.DocID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !doc.Valid(w.numDocs) {
		return fmt.Errorf("delete: docID %d out of range [0,%d)", doc, w.numDocs)
	}

	local := int(doc)
	for _, seg := range w.segments {
		if local < seg.numDocs {
			if seg.deleted == nil {
				seg.deleted = bitset.New(uint(seg.numDocs))
			}
			if seg.deleted.Test(uint(local)) {
				return fmt.Errorf("delete: docID %d already deleted", doc)
			}
			seg.deleted.Set(uint(local))
			return nil
		}
		local -= seg.numDocs
	}

	if w.pending.deleted == nil {
		w.pending.deleted = bitset.New(uint(w.pending.numDocs))
	}
	if w.pending.deleted.Test(uint(local)) {
		return fmt.Errorf("delete: docID %d already deleted", doc)
	}
	w.pending.deleted.Set(uint(local))
	return nil
}

// Flush seals the pending documents into an immutable segment. A flush
// with no pending documents is a no-op.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *Writer) flushLocked() {
	if w.pending.numDocs == 0 {
		return
	}
	w.segments = append(w.segments, w.pending.seal(w.nextSegID))
	w.nextSegID++
	w.pending = newPendingSegment()
}

// NumDocs returns the total number of documents, deleted included.
func (w *Writer) NumDocs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.numDocs
}

// Reader seals any pending documents and returns an immutable snapshot of
// the index.
func (w *Writer) Reader() *Reader {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flushLocked()

	leaves := make([]*Leaf, 0, len(w.segments))
	base := model.DocID(0)
	for _, seg := range w.segments {
		var del *bitset.BitSet
		if seg.deleted != nil && seg.deleted.Count() > 0 {
			del = seg.deleted.Clone()
		}
		leaves = append(leaves, &Leaf{
			seg:     seg,
			base:    base,
			numDocs: seg.numDocs,
			deleted: del,
		})
		base += model.DocID(seg.numDocs)
	}
	return &Reader{leaves: leaves, maxDoc: int(base)}
}

func (w *Writer) sealedDocsLocked() int {
	n := 0
	for _, seg := range w.segments {
		n += seg.numDocs
	}
	return n
}
