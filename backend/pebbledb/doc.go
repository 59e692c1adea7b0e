// Package pebbledb implements a Pebble-backed backend driver.
//
// # Overview
//
// Rows live under a table prefix, one row per logical key, ordered by the
// codec's key encoding. ApplyBatch encodes and validates the whole batch
// against the table's payload ceilings before writing anything, then commits
// through one Pebble batch; atomicity comes from the batch commit.
//
// Ceilings are persisted in a per-table meta record at first open, so later
// opens keep the limits the table was created with:
//
//	s, err := pebbledb.Open(pebbledb.Options[string, []byte]{
//		DataDir: dir,
//		Codec:   backend.StringBytes(),
//		Fsync:   pebblestore.FsyncModeInterval,
//	})
//
// The driver implements backend.Notifier; subscribers hear each committed
// key after the batch lands.
package pebbledb
