// Package ui renders the interactive console: assistant replies, tool
// progress, confirmation prompts with diff previews, and the working
// spinner. Output degrades to plain text when stdout is not a terminal.
package ui
