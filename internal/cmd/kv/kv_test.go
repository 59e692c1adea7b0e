package kv

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/rzbill/silt"
	cfgpkg "github.com/rzbill/silt/internal/config"
	"github.com/rzbill/silt/internal/runtime"
)

// testOpen returns an OpenFunc over a bolt store in dir, so state persists
// across command invocations the way it does for the real CLI.
func testOpen(t *testing.T, dir string) OpenFunc {
	t.Helper()
	return func(metrics silt.MetricsHook) (*runtime.Runtime, error) {
		cfg := cfgpkg.Default()
		cfg.Backend = "bolt"
		cfg.DataDir = dir
		cfg.Store.GroupingTimeoutMs = 5
		return runtime.Open(runtime.Options{Config: cfg, Metrics: metrics})
	}
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestPutThenGet(t *testing.T) {
	dir := t.TempDir()
	open := testOpen(t, dir)

	runCommand(t, NewPutCommand(open), "user:1", `{"name":"ada"}`)
	out := runCommand(t, NewGetCommand(open), "user:1")

	var row map[string]any
	if err := json.Unmarshal([]byte(out), &row); err != nil {
		t.Fatalf("parse output %q: %v", out, err)
	}
	want := map[string]any{
		"key":        "user:1",
		"value_json": map[string]any{"name": "ada"},
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("get output (-want +got):\n%s", diff)
	}
}

func TestPutGeneratesKey(t *testing.T) {
	dir := t.TempDir()
	open := testOpen(t, dir)

	key := strings.TrimSpace(runCommand(t, NewPutCommand(open), "standalone"))
	if key == "" {
		t.Fatal("no generated key printed")
	}
	out := runCommand(t, NewGetCommand(open), key)
	if !strings.Contains(out, "standalone") {
		t.Fatalf("value not stored under generated key: %q", out)
	}
}

func TestListPrefixAndFilter(t *testing.T) {
	dir := t.TempDir()
	open := testOpen(t, dir)

	runCommand(t, NewPutCommand(open), "user:1", `{"active":true}`)
	runCommand(t, NewPutCommand(open), "user:2", `{"active":false}`)
	runCommand(t, NewPutCommand(open), "order:1", `{"active":true}`)

	out := runCommand(t, NewListCommand(open), "--prefix", "user:", "--filter", "json.active == true")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d rows want 1: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "user:1") {
		t.Fatalf("wrong row matched: %q", lines[0])
	}
}

func TestListLimit(t *testing.T) {
	dir := t.TempDir()
	open := testOpen(t, dir)

	for _, k := range []string{"a", "b", "c"} {
		runCommand(t, NewPutCommand(open), k, "v")
	}
	out := runCommand(t, NewListCommand(open), "--limit", "2")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d rows want 2", len(lines))
	}
}

func TestPairRows(t *testing.T) {
	keys := []string{"a", "b"}
	rows := [][]byte{[]byte("1"), []byte("2")}

	listed, err := pairRows(keys, rows)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	want := []listedRow{
		{key: "a", value: []byte("1")},
		{key: "b", value: []byte("2")},
	}
	if diff := cmp.Diff(want, listed, cmp.AllowUnexported(listedRow{})); diff != "" {
		t.Fatalf("paired rows (-want +got):\n%s", diff)
	}
}

func TestPairRowsRejectsCountMismatch(t *testing.T) {
	// a driver handing back more rows than accepted keys would shift every
	// value onto the wrong key; the pairing must fail instead
	if _, err := pairRows([]string{"a"}, [][]byte{[]byte("1"), []byte("2")}); err == nil {
		t.Fatal("expected error for 2 rows against 1 key")
	}
	if _, err := pairRows([]string{"a", "b"}, [][]byte{[]byte("1")}); err == nil {
		t.Fatal("expected error for 1 row against 2 keys")
	}
}

func TestLoadReportsCoalescing(t *testing.T) {
	dir := t.TempDir()
	open := testOpen(t, dir)

	input := strings.Join([]string{
		`{"key":"a","value":"1"}`,
		`{"key":"a","value":"1"}`, // same key+value: coalesces away
		`{"key":"b","value":{"n":2}}`,
		`{"value":"keyless"}`,
	}, "\n")

	cmd := NewLoadCommand(open)
	cmd.SetIn(strings.NewReader(input))
	out := runCommand(t, cmd)

	if !strings.Contains(out, "submitted=4") {
		t.Fatalf("submitted count missing: %q", out)
	}
	if !strings.Contains(out, "inserts=3") {
		t.Fatalf("insert count missing: %q", out)
	}
	if !strings.Contains(out, "coalesced=1") {
		t.Fatalf("coalesced count missing: %q", out)
	}
}

func TestDecodedRowShapes(t *testing.T) {
	cases := []struct {
		name  string
		value []byte
		field string
	}{
		{"json object", []byte(`{"a":1}`), "value_json"},
		{"plain text", []byte("hello"), "value_text"},
		{"binary", []byte{0xff, 0xfe, 0x00}, "value_b64"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := decodedRow("k", tc.value)
			if _, ok := row[tc.field]; !ok {
				t.Fatalf("missing %s in %v", tc.field, row)
			}
		})
	}
}
