package config

import (
	"os"
	"strconv"
)

// FromEnv overlays SILT_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	setString(&cfg.Backend, "SILT_BACKEND")
	setString(&cfg.DataDir, "SILT_DATA_DIR")
	setString(&cfg.Fsync, "SILT_FSYNC")
	setInt(&cfg.FsyncIntervalMs, "SILT_FSYNC_INTERVAL_MS")
	setString(&cfg.LogLevel, "SILT_LOG_LEVEL")
	setString(&cfg.LogFormat, "SILT_LOG_FORMAT")
	setInt(&cfg.Store.GroupingTimeoutMs, "SILT_GROUPING_TIMEOUT_MS")
	setInt(&cfg.Store.GroupMaxSize, "SILT_GROUP_MAX_SIZE")
	setInt(&cfg.Store.BuildWorkers, "SILT_BUILD_WORKERS")
	setInt(&cfg.Limits.ValueMaxBytes, "SILT_VALUE_MAX_BYTES")
	setInt(&cfg.Limits.BatchMaxBytes, "SILT_BATCH_MAX_BYTES")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
