// Package agent runs the conversation loop: it sends the transcript to a
// model provider, parses tool invocations out of replies, applies the safety
// gate and confirmation policy, dispatches tools, and feeds results back to
// the model until the turn settles into a plain reply.
//
// Invariants:
// - At most one tool invocation is honored per model reply.
// - Mutations blocked by the gate or denied by the user never execute.
// - A malformed tool call is retried at most once per user turn.
// - A provider failure aborts the turn, not the session.
package agent
