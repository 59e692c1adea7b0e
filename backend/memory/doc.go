// Package memory implements an in-process backend driver.
//
// # Overview
//
// Rows live in a map guarded by one RWMutex; ApplyBatch validates the whole
// batch, then commits it under the write lock, so atomicity is structural.
// With Options.Compare set, keys are kept in a comparator-ordered treemap and
// QueryAll walks them in that order; without it, scans follow first-insert
// order.
//
// The driver doubles as the reference backend for the store pipeline's test
// suite, so it carries seams a disk driver would not:
//
//	m := memory.New(memory.Options[string, []byte]{Compare: strings.Compare})
//	m.SetApplyHook(func(ops []backend.Operation[string, []byte]) error {
//		return io.ErrClosedPipe // next batches fail, nothing commits
//	})
//	m.SeedRows("k", rowA, rowB) // fabricate the multi-row anomaly
//	batches := m.AppliedBatches()
//
// It also implements backend.Notifier: subscribers hear each committed key.
package memory
