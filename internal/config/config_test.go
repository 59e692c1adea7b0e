package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend != "pebble" {
		t.Fatalf("default backend: %q", cfg.Backend)
	}
	if cfg.Store.GroupingTimeoutMs != 100 {
		t.Fatalf("grouping timeout default: %d", cfg.Store.GroupingTimeoutMs)
	}
	if cfg.Store.GroupMaxSize != 30 {
		t.Fatalf("group max size default: %d", cfg.Store.GroupMaxSize)
	}
	if cfg.Limits.ValueMaxBytes != 1<<20 {
		t.Fatalf("value ceiling default: %d", cfg.Limits.ValueMaxBytes)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "silt.json")
	data := []byte(`{"backend":"bolt","fsync":"never","store":{"groupMaxSize":50},"limits":{"valueMaxBytes":2048}}`)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "bolt" {
		t.Fatalf("backend: %q", cfg.Backend)
	}
	if cfg.Fsync != "never" {
		t.Fatalf("fsync: %q", cfg.Fsync)
	}
	if cfg.Store.GroupMaxSize != 50 {
		t.Fatalf("group max size: %d", cfg.Store.GroupMaxSize)
	}
	// untouched fields keep defaults
	if cfg.Store.GroupingTimeoutMs != 100 {
		t.Fatalf("grouping timeout: %d", cfg.Store.GroupingTimeoutMs)
	}
	if cfg.Limits.ValueMaxBytes != 2048 {
		t.Fatalf("value ceiling: %d", cfg.Limits.ValueMaxBytes)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "silt.yaml")
	data := []byte("backend: memory\nlogLevel: debug\nstore:\n  groupingTimeoutMs: 5\n  buildWorkers: 8\n")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "memory" {
		t.Fatalf("backend: %q", cfg.Backend)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level: %q", cfg.LogLevel)
	}
	if cfg.Store.GroupingTimeoutMs != 5 || cfg.Store.BuildWorkers != 8 {
		t.Fatalf("store: %+v", cfg.Store)
	}
	if cfg.Store.GroupMaxSize != 30 {
		t.Fatalf("group max size default lost: %d", cfg.Store.GroupMaxSize)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != Default().Backend {
		t.Fatalf("empty path should return defaults, got %+v", cfg)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("SILT_BACKEND", "bolt")
	t.Setenv("SILT_FSYNC", "never")
	t.Setenv("SILT_GROUP_MAX_SIZE", "7")
	t.Setenv("SILT_BUILD_WORKERS", "not-a-number") // ignored
	FromEnv(&cfg)

	if cfg.Backend != "bolt" {
		t.Fatalf("env backend: %q", cfg.Backend)
	}
	if cfg.Fsync != "never" {
		t.Fatalf("env fsync: %q", cfg.Fsync)
	}
	if cfg.Store.GroupMaxSize != 7 {
		t.Fatalf("env group max size: %d", cfg.Store.GroupMaxSize)
	}
	if cfg.Store.BuildWorkers != 4 {
		t.Fatalf("bad int should be ignored: %d", cfg.Store.BuildWorkers)
	}
}
