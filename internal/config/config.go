package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// Backend selects the storage driver: memory|pebble|bolt.
	Backend string `json:"backend" yaml:"backend"`
	// DataDir is where persistent drivers keep their files.
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync selects WAL durability for the pebble driver: always|interval|never.
	Fsync string `json:"fsync" yaml:"fsync"`
	// FsyncIntervalMs is the group-commit window when Fsync is "interval".
	FsyncIntervalMs int `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`

	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat"`

	Store  StoreConfig `json:"store" yaml:"store"`
	Limits Limits      `json:"limits" yaml:"limits"`
}

// StoreConfig tunes the write-coalescing pipeline.
type StoreConfig struct {
	// GroupingTimeoutMs is the quiet period that seals a batch window.
	GroupingTimeoutMs int `json:"groupingTimeoutMs" yaml:"groupingTimeoutMs"`
	// GroupMaxSize seals a window when it holds this many operations.
	GroupMaxSize int `json:"groupMaxSize" yaml:"groupMaxSize"`
	// BuildWorkers sizes the operation-builder pool.
	BuildWorkers int `json:"buildWorkers" yaml:"buildWorkers"`
}

// Limits caps encoded payloads at the storage drivers.
type Limits struct {
	ValueMaxBytes int `json:"valueMaxBytes" yaml:"valueMaxBytes"`
	BatchMaxBytes int `json:"batchMaxBytes" yaml:"batchMaxBytes"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Backend: "pebble",
		DataDir: DefaultDataDir(),
		Fsync:   "interval",
		Store: StoreConfig{
			GroupingTimeoutMs: 100,
			GroupMaxSize:      30,
			BuildWorkers:      4,
		},
		Limits: Limits{
			ValueMaxBytes: 1 << 20,
			BatchMaxBytes: 4 << 20,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension), layered
// over defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
