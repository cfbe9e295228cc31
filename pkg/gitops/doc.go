// Package gitops runs a restricted subset of git inside the workspace. Only
// an allowlist of subcommands is accepted, tokens that can redirect git at
// other repositories or spawn programs are rejected, and pushes are blocked
// while the working tree is dirty.
package gitops
