// Package silt implements a write-coalescing persistence core: it accepts a
// stream of keyed upsert requests, serializes concurrent writes per key,
// merges conflicting writes, and applies the survivors to a transactional
// backend in atomic batches.
//
// # Overview
//
// One Store owns one pipeline:
//
//	Put → intake (unbounded, ordered)
//	    → builders (worker pool): lock key, query backend, derive
//	      insert/update/no-op via Merge+Equal
//	    → batcher (one goroutine): windows operations, sealing on a quiet
//	      period or a size cap, whichever first
//	    → applier (one goroutine): atomic ApplyBatch, then releases every
//	      key lock in the batch
//
// A key's lock is taken before the backend read and released exactly once:
// immediately when the derived operation is a no-op (or the build fails),
// otherwise after the containing batch is applied. A second Put for the same
// key therefore waits until the first resolves; Puts for different keys are
// independent.
//
// Reads bypass the pipeline entirely and observe whatever backend state
// exists at query time.
//
// API surface
//
//	st, _ := silt.Open(b, silt.Options[string, []byte]{
//		GroupingTimeout: 100 * time.Millisecond,
//		GroupMaxSize:    30,
//	})
//	_ = st.Put("user:1", doc)              // fire-and-forget enqueue
//	v, err := st.GetOnce(ctx, "user:1")    // silt.ErrNotFound when absent
//	all, _ := st.GetAllOnce(ctx, nil)      // backend iteration order
//	_ = st.Close(ctx)                      // drain, flush, stop
//
// # Failure handling
//
// Put fails only on nil key/value or after Close; pipeline failures never
// reach the Put caller. A failed backend read during a build downgrades to a
// no-op (logged, lock released). A failed batch apply drops the whole batch,
// logs an error, and by default leaves the batch's keys locked so later
// writes to them park instead of racing a backend in an unknown state; see
// Options.ReleaseOnApplyFailure for the recovery trade-off.
package silt
