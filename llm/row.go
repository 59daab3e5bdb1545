package llm

import "encoding/json"

// Row is one generated record: a mapping from column name to a
// dynamically-typed scalar, parsed from the model's JSON output.
// The pipeline treats rows as opaque except for the fields the
// validators and graph projection inspect through these accessors.
type Row map[string]any

// String returns the value under key rendered as a string.
// Absent keys and non-scalar values yield "".
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		b, _ := json.Marshal(s)
		return string(b)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Has reports whether the key is present, even with a null value.
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// IsEmpty reports whether the key is absent, null, or an empty string.
func (r Row) IsEmpty(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}
