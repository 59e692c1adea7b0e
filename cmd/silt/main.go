package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rzbill/silt"
	kvcmd "github.com/rzbill/silt/internal/cmd/kv"
	cfgpkg "github.com/rzbill/silt/internal/config"
	"github.com/rzbill/silt/internal/runtime"
	logpkg "github.com/rzbill/silt/pkg/log"
)

func main() {
	var (
		configPath string
		backendArg string
		dataDir    string
		fsync      string
		logLevel   string
		logFormat  string
	)

	rootCmd := &cobra.Command{
		Use:   "silt",
		Short: "Write-coalescing key/value store CLI",
		Long: "silt coalesces keyed writes into atomic backend batches. This CLI runs\n" +
			"one-shot operations against a memory, Pebble, or bbolt store.",
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", os.Getenv("SILT_CONFIG"), "Config file (JSON or YAML)")
	pf.StringVar(&backendArg, "backend", "", "Storage backend: memory|pebble|bolt")
	pf.StringVar(&dataDir, "data-dir", "", "Data directory for persistent backends")
	pf.StringVar(&fsync, "fsync", "", "Fsync mode for the pebble backend: always|interval|never")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text|json")

	// resolution order: defaults < config file < SILT_* env < flags
	loadConfig := func() (cfgpkg.Config, error) {
		cfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
		}
		cfgpkg.FromEnv(&cfg)
		if backendArg != "" {
			cfg.Backend = backendArg
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if fsync != "" {
			cfg.Fsync = fsync
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		return cfg, nil
	}

	open := func(metrics silt.MetricsHook) (*runtime.Runtime, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		logger := logpkg.New(logpkg.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		// Pebble logs through the standard library's global logger.
		logpkg.RedirectStdLog(logger)
		return runtime.Open(runtime.Options{Config: cfg, Logger: logger, Metrics: metrics})
	}

	rootCmd.AddCommand(
		kvcmd.NewPutCommand(open),
		kvcmd.NewGetCommand(open),
		kvcmd.NewListCommand(open),
		kvcmd.NewLoadCommand(open),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
