// Package docset provides the set-of-documents abstraction used on either
// side of a join: an exact-cardinality set of DocIDs on one reader.
//
// Two concrete variants exist. BitDocSet is backed by a dense bitset of
// length maxDoc and suits large sets; SortedIntDocSet is an ascending
// DocID array and suits small ones. Consumers that care about the backing
// representation (e.g. to clone a bitset cheaply) use a type switch; all
// other access goes through the DocSet interface.
//
// Invariants: no duplicates, iteration yields ascending order, Size is
// exact.
package docset
