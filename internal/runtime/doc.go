// Package runtime wires config, logging, a storage driver, and one store
// pipeline into a single silt instance handle for the CLI.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
//	defer rt.Close(ctx)
//	_ = rt.Store().Put("user:1", doc)
//	v, _ := rt.Store().GetOnce(ctx, "user:1")
package runtime
