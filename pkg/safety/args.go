package safety

import "strings"

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	if b, ok := args[key].(bool); ok {
		return b
	}
	return false
}

// cmdWords flattens a run_cmd "cmd" argument into trimmed lowercase tokens.
// JSON decoding yields []any, XML coercion can yield []string; both are
// accepted.
func cmdWords(args map[string]any) []string {
	if args == nil {
		return nil
	}
	var parts []string
	switch v := args["cmd"].(type) {
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	var words []string
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			words = append(words, token)
		}
	}
	return words
}

// cmdText joins the raw run_cmd tokens for display.
func cmdText(args map[string]any) string {
	if args == nil {
		return ""
	}
	var parts []string
	switch v := args["cmd"].(type) {
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
