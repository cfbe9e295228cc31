// Package procrun executes allowlisted commands inside the workspace without
// a shell, with adaptive timeouts, process-group termination, and tracking of
// detached background processes.
//
// Invariants:
// - Only binaries on the allowlist are ever spawned.
// - Commands run with the sandbox root (or a subdirectory) as cwd, never
//   through a shell.
// - Timed-out foreground commands have their whole process group terminated.
// - Stop requests are honored only for pids spawned detached in this session.
package procrun
