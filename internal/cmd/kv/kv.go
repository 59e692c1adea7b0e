package kv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rzbill/silt"
	"github.com/rzbill/silt/internal/runtime"
	"github.com/rzbill/silt/pkg/id"
)

// OpenFunc opens the runtime for one command invocation; the root command
// provides it from config and flags. Commands that report pipeline stats
// pass a metrics hook, the rest pass nil.
type OpenFunc func(metrics silt.MetricsHook) (*runtime.Runtime, error)

// NewPutCommand constructs `silt put`.
func NewPutCommand(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [key] <value>",
		Short: "Write one value; the key is generated when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := "", args[0]
			if len(args) == 2 {
				key, value = args[0], args[1]
			} else {
				key = id.NewGenerator().Next().String()
			}

			rt, err := open(nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.Background()) }()

			if err := rt.Store().Put(key, []byte(value)); err != nil {
				return err
			}
			// Close drains the pipeline, so the write is applied on return.
			if err := rt.Close(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	return cmd
}

// NewGetCommand constructs `silt get`.
func NewGetCommand(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read one value by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.Background()) }()

			v, err := rt.Store().GetOnce(cmd.Context(), args[0])
			if errors.Is(err, silt.ErrNotFound) {
				return fmt.Errorf("key %q not found", args[0])
			}
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(decodedRow(args[0], v))
		},
	}
	return cmd
}

// NewListCommand constructs `silt list`.
func NewListCommand(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rows in key order, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			filterExpr, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			filter, err := newRowFilter(filterExpr)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}

			rt, err := open(nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.Background()) }()

			var keys []string
			rows, err := rt.Store().GetAllOnce(cmd.Context(), func(k string) bool {
				if prefix != "" && !strings.HasPrefix(k, prefix) {
					return false
				}
				keys = append(keys, k)
				return true
			})
			if err != nil {
				return err
			}
			listed, err := pairRows(keys, rows)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			printed := 0
			for _, lr := range listed {
				if limit > 0 && printed >= limit {
					break
				}
				if !filter.Eval(lr.key, lr.value) {
					continue
				}
				if err := enc.Encode(decodedRow(lr.key, lr.value)); err != nil {
					return err
				}
				printed++
			}
			return nil
		},
	}
	cmd.Flags().String("prefix", "", "Only keys with this prefix")
	cmd.Flags().String("filter", "", "CEL expression over key/text/json/size (e.g. 'json.active == true')")
	cmd.Flags().Int("limit", 0, "Stop after this many rows (0 = all)")
	return cmd
}

// listedRow is one key/value pair produced by `silt list`.
type listedRow struct {
	key   string
	value []byte
}

// pairRows zips the keys accepted during the match scan with the rows the
// driver returned for them. Drivers call match in scan order and store one
// row per key, so the slices line up; a driver that breaks that contract
// would pair keys with the wrong values, and then failing beats printing
// misattributed rows.
func pairRows(keys []string, rows [][]byte) ([]listedRow, error) {
	if len(keys) != len(rows) {
		return nil, fmt.Errorf("driver returned %d rows for %d matched keys", len(rows), len(keys))
	}
	out := make([]listedRow, len(keys))
	for i := range keys {
		out[i] = listedRow{key: keys[i], value: rows[i]}
	}
	return out, nil
}

// NewLoadCommand constructs `silt load`.
func NewLoadCommand(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Bulk-ingest JSON lines ({\"key\":...,\"value\":...}) and report coalescing stats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			stats := &coalesceStats{}
			rt, err := open(stats)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.Background()) }()

			gen := id.NewGenerator()
			submitted, err := ingest(rt, in, gen)
			if err != nil {
				return err
			}
			if err := rt.Close(cmd.Context()); err != nil {
				return err
			}

			inserts, updates, noops, batches := stats.snapshot()
			fmt.Fprintf(cmd.OutOrStdout(),
				"submitted=%d inserts=%d updates=%d coalesced=%d batches=%d\n",
				submitted, inserts, updates, noops, batches)
			return nil
		},
	}
	return cmd
}

// loadLine is one JSON-lines record for `silt load`. A missing key gets a
// generated sortable one; a JSON value is stored as its compact encoding.
type loadLine struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func ingest(rt *runtime.Runtime, in io.Reader, gen *id.Generator) (int, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	submitted := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec loadLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return submitted, fmt.Errorf("line %d: %w", submitted+1, err)
		}
		if rec.Key == "" {
			rec.Key = gen.Next().String()
		}
		value := []byte(rec.Value)
		// unquote plain string values so round-trips stay byte-stable
		var s string
		if json.Unmarshal(rec.Value, &s) == nil {
			value = []byte(s)
		}
		if err := rt.Store().Put(rec.Key, value); err != nil {
			return submitted, err
		}
		submitted++
	}
	return submitted, sc.Err()
}
