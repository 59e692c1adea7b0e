package kv

import "testing"

func TestRowFilterDisabled(t *testing.T) {
	f, err := newRowFilter("   ")
	if err != nil {
		t.Fatalf("empty filter: %v", err)
	}
	if !f.Eval("k", []byte("anything")) {
		t.Fatal("disabled filter rejected a row")
	}
}

func TestRowFilterEval(t *testing.T) {
	cases := []struct {
		name  string
		expr  string
		key   string
		value string
		want  bool
	}{
		{"key match", `key.startsWith("user:")`, "user:1", "v", true},
		{"key miss", `key.startsWith("user:")`, "order:1", "v", false},
		{"text contains", `text.contains("ada")`, "k", "ada lovelace", true},
		{"size bound", `size < 4`, "k", "abc", true},
		{"json field", `json.active == true`, "k", `{"active":true}`, true},
		{"json field false", `json.active == true`, "k", `{"active":false}`, false},
		{"json on non-json", `json.active == true`, "k", "not json", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := newRowFilter(tc.expr)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			if got := f.Eval(tc.key, []byte(tc.value)); got != tc.want {
				t.Fatalf("%q on (%q, %q): got %v want %v", tc.expr, tc.key, tc.value, got, tc.want)
			}
		})
	}
}

func TestRowFilterCompileError(t *testing.T) {
	if _, err := newRowFilter("this is not CEL ((("); err == nil {
		t.Fatal("malformed expression compiled")
	}
}
