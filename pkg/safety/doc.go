// Package safety classifies tool invocations as mutating or read-only,
// decides when a read-only request must block mutating tools, and determines
// which invocations need interactive confirmation before running.
//
// Invariants:
// - Classification is computed from the invocation alone, never from model
//   output prose.
// - The read-only guard blocks before any side effect happens.
// - Confirmation requirements are deterministic for a given invocation.
package safety
