// Package backend defines the storage contract consumed by the silt store
// pipeline.
//
// # Overview
//
// A Backend is a transactional keyed row store reachable through two calls:
// a side-effect-free Query by key and an atomic ApplyBatch of insert/update
// operations. The write pipeline derives operations against Query results and
// hands sealed batches to ApplyBatch; everything else (row encoding, payload
// ceilings, iteration order) is the driver's business.
//
// Drivers in this repo:
//   - backend/memory   — in-process rows, ordered via a comparator treemap
//   - backend/pebbledb — Pebble LSM, fsync policy + per-table meta ceilings
//   - backend/boltdb   — bbolt, one bucket per table, one tx per batch
//
// API surface
//
//	ops := []backend.Operation[string, []byte]{
//		{Kind: backend.OpInsert, Key: "user:1", Value: v1},
//		{Kind: backend.OpUpdate, Key: "user:2", Value: v2},
//	}
//	if err := b.ApplyBatch(ctx, ops); err != nil {
//		// the batch took no effect; errors.Is(err, backend.ErrBatchTooLarge)
//		// distinguishes ceiling rejections from driver failures
//	}
//
//	rows, _ := b.Query(ctx, "user:1")        // zero or more decoded rows
//	all, _ := b.QueryAll(ctx, nil)           // every row, driver iteration order
//
// # Change notification
//
// Drivers that can announce row changes additionally implement Notifier. The
// store registers interest at open; reacting to foreign changes stays with the
// embedder.
package backend
