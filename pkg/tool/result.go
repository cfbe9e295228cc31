package tool

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Result is the uniform outcome of a tool execution. It always carries the
// base ok/error pair plus flat tool-specific fields; ok=false is terminal
// data, never something to re-raise. Field names shared across tools for
// uniformity: path, cmd, cwd, exit_code, stdout, stderr.
type Result struct {
	OK     bool
	Error  string
	Fields map[string]any
}

// Ok builds a successful result with the given tool-specific fields.
func Ok(fields map[string]any) Result {
	if fields == nil {
		fields = map[string]any{}
	}
	return Result{OK: true, Fields: fields}
}

// Fail builds a failed result with a human-readable error message.
func Fail(format string, args ...any) Result {
	return Result{OK: false, Error: fmt.Sprintf(format, args...)}
}

// FailWith builds a failed result carrying extra fields (candidates,
// cmd/cwd context, precheck markers).
func FailWith(fields map[string]any, format string, args ...any) Result {
	r := Fail(format, args...)
	r.Fields = fields
	return r
}

// With returns a copy of the result with one extra field set.
func (r Result) With(key string, value any) Result {
	fields := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		fields[k] = v
	}
	fields[key] = value
	r.Fields = fields
	return r
}

// Field returns a tool-specific field value.
func (r Result) Field(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// StringField returns a tool-specific field as a string.
func (r Result) StringField(key string) string {
	if v, ok := r.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IntField returns a tool-specific numeric field as an int.
func (r Result) IntField(key string) (int, bool) {
	switch v := r.Fields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// MarshalJSON flattens the result into a single JSON object:
// {"ok":..., "error":..., <tool-specific fields>...}.
func (r Result) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat["ok"] = r.OK
	if r.Error != "" {
		flat["error"] = r.Error
	}
	return json.Marshal(flat)
}

// UnmarshalJSON rebuilds a Result from its flat wire encoding.
func (r *Result) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	ok, _ := flat["ok"].(bool)
	errMsg, _ := flat["error"].(string)
	delete(flat, "ok")
	delete(flat, "error")
	r.OK = ok
	r.Error = errMsg
	r.Fields = flat
	return nil
}

// FieldNames returns the tool-specific field names in sorted order.
func (r Result) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
