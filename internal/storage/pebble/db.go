package pebblestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// FsyncMode selects WAL durability for committed batches.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the WAL on every committed batch.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs for batches committed
	// within the configured interval (group commit).
	FsyncModeInterval
	// FsyncModeNever leaves syncing to Pebble's own policies. Cheapest and
	// least durable.
	FsyncModeNever
)

// ParseFsyncMode maps a mode name (always|interval|never) to its FsyncMode.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "", "always":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, fmt.Errorf("unknown fsync mode %q", s)
	}
}

// Options configures Open.
type Options struct {
	// DataDir is the Pebble database directory. Required.
	DataDir string
	// Fsync selects WAL durability. Unspecified means a 5ms group-commit
	// window.
	Fsync FsyncMode
	// FsyncInterval is the group-commit window for FsyncModeInterval.
	// 0 means 5ms.
	FsyncInterval time.Duration
	// PebbleOptions tunes the underlying store. Nil means Pebble defaults.
	PebbleOptions *pebble.Options
	// Metrics observes read and commit latencies. Nil means no-op.
	Metrics MetricsHook
}

// MetricsHook observes storage-level operations.
type MetricsHook interface {
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is the default MetricsHook.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// ErrNotFound reports a missing key from Get.
var ErrNotFound = pebble.ErrNotFound

// DB wraps one Pebble instance with a fixed fsync policy. All writes go
// through batches so a multi-key commit is atomic.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook
}

// Open creates or opens the database at opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	interval := opts.FsyncInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	switch opts.Fsync {
	case FsyncModeAlways:
		// commits pass pebble.Sync; no WAL coalescing
	case FsyncModeNever:
		// commits pass pebble.NoSync and the WAL syncs on Pebble's schedule
	default:
		po.WALMinSyncInterval = func() time.Duration { return interval }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.DataDir, err)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Get returns a copy of the value at key, or ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// NewBatch starts a batch for an atomic multi-key commit.
func (db *DB) NewBatch() *pebble.Batch {
	return db.inner.NewBatch()
}

// CommitBatch commits b under the configured fsync policy. The batch either
// takes effect as a whole or not at all.
func (db *DB) CommitBatch(b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	start := time.Now()
	numOps := int(b.Count())
	size := b.Len()

	syncMode := pebble.NoSync
	if db.writeSync {
		syncMode = pebble.Sync
	}
	if err := b.Commit(syncMode); err != nil {
		return err
	}
	db.metrics.ObserveBatchCommit(time.Since(start), numOps, size)
	return nil
}

// Set writes one key through a single-op batch, respecting the fsync policy.
func (db *DB) Set(key, value []byte) error {
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Set(key, value, nil); err != nil {
		return err
	}
	return db.CommitBatch(b)
}

// Delete removes one key through a single-op batch.
func (db *DB) Delete(key []byte) error {
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Delete(key, nil); err != nil {
		return err
	}
	return db.CommitBatch(b)
}

// Scan walks keys in [prefix, prefixEnd(prefix)) in lexical order, invoking
// fn with borrowed key/value buffers; fn must copy what it keeps. Returning
// false from fn stops the scan.
func (db *DB) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	it, err := db.inner.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return it.Error()
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no upper bound exists (all-0xff prefix).
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
