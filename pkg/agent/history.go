package agent

import (
	"os"
	"strconv"
	"strings"
)

const defaultClipChars = 800

// lastNTurns keeps only the most recent n user/assistant exchanges so the
// context sent to the provider stays bounded.
func lastNTurns(messages []Message, n int) []Message {
	if n <= 0 {
		return messages
	}
	keep := n * 2
	if len(messages) <= keep {
		return messages
	}
	return messages[len(messages)-keep:]
}

// Clip truncates long tool output before it is shown to the user. The limit
// can be overridden with BAXTER_CLIP_CHARS; 0 or a negative value disables
// clipping.
func Clip(text string) string {
	maxChars := defaultClipChars
	if raw := strings.TrimSpace(os.Getenv("BAXTER_CLIP_CHARS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxChars = parsed
		} else {
			maxChars = 0
		}
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n...[truncated]"
}
