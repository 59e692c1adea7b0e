package kv

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// rowFilter wraps a compiled CEL program evaluated against each listed row.
// When disabled, Eval always returns true.
type rowFilter struct {
	prog    cel.Program
	enabled bool
}

func newRowFilter(expr string) (rowFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return rowFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Parsed JSON value (map/list/scalar) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return rowFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return rowFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return rowFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return rowFilter{}, err
	}
	return rowFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one row. When disabled,
// returns true; evaluation errors exclude the row.
func (f rowFilter) Eval(key string, value []byte) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(value, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"key":    key,
		"size":   int64(len(value)),
		"text":   string(value),
		"json":   jsonObj,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
