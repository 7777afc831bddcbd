// Package index implements the segmented in-memory inverted index that
// backs joingo cores.
//
// A Writer accumulates documents into a pending segment and seals it into
// immutable segments on Flush. Reader snapshots present the sealed segments
// as a composite ID space: each leaf contributes its documents at
// leaf-local ID + base, with bases assigned in leaf order.
//
// # Term Enumeration
//
// Terms within a field are totally ordered by lexicographic byte
// comparison. TermsIterator interleaves the per-leaf sorted dictionaries
// without materializing a merged dictionary, and exposes SeekCeil/Next in
// the usual term-dictionary style.
//
// # Postings
//
// PostingsIterator presents one ascending DocID stream over all leaves that
// hold the current term, rebasing leaf-local IDs into the composite space.
// It can optionally skip deleted documents.
//
// # Liveness
//
// Deletes never rewrite postings; they flip per-segment deleted bits.
// Reader snapshots copy those bits, so a snapshot is unaffected by later
// deletes. Document frequency (DocFreq) counts live and deleted documents
// alike, as reported by the postings containers.
package index
