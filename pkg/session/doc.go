// Package session persists conversation transcripts as JSONL files, one
// file per session key, with per-key write locking and best-effort recovery
// from corrupted lines.
package session
