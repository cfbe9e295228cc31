package toolcall

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Invocation is a structured tool call extracted from a model reply.
type Invocation struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

var (
	invokeRe    = regexp.MustCompile(`(?is)<invoke\s+name="([^"]+)"\s*>(.*?)</invoke>`)
	parameterRe = regexp.MustCompile(`(?is)<parameter\s+name="([^"]+)"\s*>(.*?)</parameter>`)
	integerRe   = regexp.MustCompile(`^-?\d+$`)
)

// Parse extracts a tool invocation from raw model text. Strategies are tried
// in order, first success wins:
//  1. the entire text is one JSON object with "tool" and "args" keys
//  2. a streaming JSON decode at each "{" in the text, accepting the first
//     decoded object that carries both keys
//  3. a legacy XML-like <invoke name="..."> block with <parameter> children
//
// Text that matches none of the strategies yields nil.
func Parse(text string) *Invocation {
	if inv := parseWholeJSON(text); inv != nil {
		return inv
	}
	if inv := parseEmbeddedJSON(text); inv != nil {
		return inv
	}
	return parseInvokeXML(text)
}

// LooksLikeBrokenAttempt reports whether text resembles a tool call that
// failed to parse. The agent loop uses this to request exactly one corrective
// retry before treating the reply as plain prose.
func LooksLikeBrokenAttempt(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if strings.Contains(t, `"tool"`) && strings.Contains(t, `"args"`) {
		return true
	}
	if strings.HasPrefix(t, "{") && (strings.Contains(t, "tool") || strings.Contains(t, "args")) {
		return true
	}
	return false
}

func parseWholeJSON(text string) *Invocation {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return invocationFromRaw(raw)
}

func parseEmbeddedJSON(text string) *Invocation {
	i := 0
	for i < len(text) {
		start := strings.Index(text[i:], "{")
		if start == -1 {
			return nil
		}
		start += i

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			i = start + 1
			continue
		}
		if inv := invocationFromRaw(raw); inv != nil {
			return inv
		}
		// A valid object without tool+args: skip past it and keep scanning.
		consumed := int(dec.InputOffset())
		if consumed < 1 {
			consumed = 1
		}
		i = start + consumed
	}
	return nil
}

func invocationFromRaw(raw map[string]json.RawMessage) *Invocation {
	toolRaw, hasTool := raw["tool"]
	argsRaw, hasArgs := raw["args"]
	if !hasTool || !hasArgs {
		return nil
	}

	var tool string
	if err := json.Unmarshal(toolRaw, &tool); err != nil || strings.TrimSpace(tool) == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(argsRaw, &args); err != nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	return &Invocation{Tool: strings.TrimSpace(tool), Args: args}
}

func parseInvokeXML(text string) *Invocation {
	m := invokeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	tool := strings.TrimSpace(m[1])
	if tool == "" {
		return nil
	}

	args := map[string]any{}
	for _, p := range parameterRe.FindAllStringSubmatch(m[2], -1) {
		key := strings.TrimSpace(p[1])
		args[key] = coerceParameter(strings.TrimSpace(p[2]))
	}
	return &Invocation{Tool: tool, Args: args}
}

// coerceParameter maps XML parameter text onto JSON-shaped values: booleans,
// integers, and embedded JSON arrays/objects; anything else stays a string.
func coerceParameter(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if integerRe.MatchString(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		return raw
	}
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}
