package log

import (
	"bytes"
	"context"
	"encoding/json"
	stdlog "log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", int(InfoLevel), false},
		{"debug", int(DebugLevel), false},
		{"INFO", int(InfoLevel), false},
		{"warn", int(WarnLevel), false},
		{"warning", int(WarnLevel), false},
		{"error", int(ErrorLevel), false},
		{"loud", 0, true},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseLevel(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", c.in, err)
		}
		if int(got) != c.want {
			t.Fatalf("ParseLevel(%q): got %d want %d", c.in, got, c.want)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "json", Output: &buf})
	logger.Info("config.load", Str("path", "/tmp/x"), Int("keys", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["msg"] != "config.load" {
		t.Fatalf("msg: got %v", rec["msg"])
	}
	if rec["path"] != "/tmp/x" {
		t.Fatalf("path field: got %v", rec["path"])
	}
}

func TestNewTextLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line leaked through warn filter: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	// must not panic and must report disabled at every level
	logger.Debug("x")
	logger.Error("x", Err(nil))
	if logger.Enabled(context.Background(), ErrorLevel) {
		t.Fatal("nop logger reports enabled")
	}
}

func TestRedirectStdLog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Output: &buf})
	restore := RedirectStdLog(logger)
	defer restore()

	stdlog.Print("pebble: compaction done")
	if !strings.Contains(buf.String(), "pebble: compaction done") {
		t.Fatalf("std log line not routed: %q", buf.String())
	}
}
