// Package fileops reads, writes, patches, and deletes files through the path
// sandbox, and provides recursive code search.
//
// Invariants:
// - Existing files are never overwritten without an explicit overwrite flag.
// - apply_diff fails loudly on zero or ambiguous matches instead of guessing.
// - Directory deletion is restricted to empty directories.
package fileops
