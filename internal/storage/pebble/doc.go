// Package pebblestore wraps Pebble with a fixed fsync policy, atomic batch
// commits, prefix scans, and a minimal metrics hook. The pebbledb backend
// driver builds on it.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic multi-key commit
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(b)
//	b.Close()
//
//	// Point ops and ordered scans
//	v, _ := db.Get([]byte("k"))
//	_ = db.Scan([]byte("t/"), func(k, v []byte) bool { return true })
package pebblestore
