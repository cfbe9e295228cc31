// Package sandbox confines file and path operations to one root directory.
//
// Invariants:
// - Resolved paths equal the root or lie strictly below it.
// - Absolute input paths are rejected outright.
// - Basename fallback never guesses among multiple matches.
package sandbox
