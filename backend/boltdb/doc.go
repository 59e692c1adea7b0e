// Package boltdb implements a bbolt-backed backend driver.
//
// # Overview
//
// Rows live in one bucket, one row per logical key, ordered by the codec's
// key encoding. ApplyBatch validates the whole batch against the configured
// payload ceilings before opening a transaction, then writes every row in a
// single Update; bbolt's transaction makes the batch atomic and durable.
//
//	s, err := boltdb.Open(boltdb.Options[string, []byte]{
//		Path:  filepath.Join(dir, "silt.db"),
//		Codec: backend.StringBytes(),
//	})
//
// OpenTemp opens a throwaway store under a unique temp path for tests and
// ephemeral tooling; pair it with Destroy.
package boltdb
