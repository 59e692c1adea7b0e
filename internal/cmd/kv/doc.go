// Package kv provides the `silt` command-line commands.
//
// The commands open a runtime (config + logger + backend + store) per
// invocation, run one operation, and drain the pipeline on exit:
//
//	silt put user:1 '{"name":"ada"}'
//	silt put 'standalone value'          # key generated, printed to stdout
//	silt get user:1
//	silt list --prefix user: --filter 'json.name == "ada"'
//	silt load fixtures.jsonl             # JSON lines, reports coalescing stats
//
// The backend, data directory, and pipeline tuning come from the root
// command's flags, a config file, and SILT_* environment variables.
package kv
