// Package testutil provides deterministic corpus generators and index
// builders shared by tests.
package testutil
