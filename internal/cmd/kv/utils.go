package kv

import (
	"encoding/base64"
	"encoding/json"
	"unicode/utf8"
)

// decodedRow returns a printable map for one row: the key plus one of
// value_json, value_text, or value_b64, picked by what the payload decodes
// as.
func decodedRow(key string, value []byte) map[string]any {
	out := map[string]any{"key": key}
	if len(value) > 0 && (value[0] == '{' || value[0] == '[') {
		var v any
		if json.Unmarshal(value, &v) == nil {
			out["value_json"] = v
			return out
		}
	}
	if utf8.Valid(value) {
		out["value_text"] = string(value)
		return out
	}
	out["value_b64"] = base64.StdEncoding.EncodeToString(value)
	return out
}
