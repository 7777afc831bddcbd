// Package model defines core types used throughout joingo.
//
// # Identity Types
//
//   - DocID: composite document identifier within one reader (int32-ranged)
//   - SegmentID: unique identifier for a segment (uint64)
//   - Term: immutable term byte sequence, ordered lexicographically
//
// # Iterator Sentinel
//
// NoMoreDocs terminates every DocID stream. It equals math.MaxInt32, so any
// stored DocID equal to it is invalid data by construction.
package model
