// Package config provides loading and environment overlay for silt
// configuration. It exposes a Default() baseline, file loading (JSON or
// YAML by extension), and a SILT_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/silt.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close(ctx)
package config
