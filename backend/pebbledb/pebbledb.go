package pebbledb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/silt/backend"
	pebblestore "github.com/rzbill/silt/internal/storage/pebble"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// DefaultTable names the table used when Options.Table is empty.
const DefaultTable = "default"

// Options configures Open.
type Options[K comparable, V any] struct {
	// DataDir is the Pebble database directory. Required.
	DataDir string

	// Codec maps keys and values to stored bytes. Required.
	Codec backend.Codec[K, V]

	// Table isolates this store's rows inside the database. Empty means
	// DefaultTable.
	Table string

	// Fsync and FsyncInterval select WAL durability; see pebblestore.
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration

	// ValueMaxBytes and BatchMaxBytes override the ceiling defaults when
	// the table is first created. Existing tables keep their persisted
	// ceilings.
	ValueMaxBytes int
	BatchMaxBytes int

	// Logger receives driver events. Nil discards them.
	Logger *logpkg.Logger

	// Metrics observes storage reads and commits. Nil means no-op.
	Metrics pebblestore.MetricsHook
}

// Store is a Pebble-backed backend.Backend: one row per key under a table
// prefix, batches committed atomically through a single Pebble batch.
type Store[K comparable, V any] struct {
	db     *pebblestore.DB
	codec  backend.Codec[K, V]
	table  string
	meta   Meta
	logger *logpkg.Logger

	subMu  sync.Mutex
	subs   map[int]func(K)
	subSeq int
}

var _ backend.Backend[string, []byte] = (*Store[string, []byte])(nil)
var _ backend.Notifier[string] = (*Store[string, []byte])(nil)

// Open opens (or creates) the database at opts.DataDir and ensures the
// table's meta record.
func Open[K comparable, V any](opts Options[K, V]) (*Store[K, V], error) {
	if opts.Codec == nil {
		return nil, errors.New("pebbledb: Options.Codec is required")
	}
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.Nop()
	}

	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	meta, err := ensureMeta(db, table, Meta{
		ValueMaxBytes: opts.ValueMaxBytes,
		BatchMaxBytes: opts.BatchMaxBytes,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pebbledb: ensure meta: %w", err)
	}

	s := &Store[K, V]{
		db:     db,
		codec:  opts.Codec,
		table:  table,
		meta:   meta,
		logger: logger.With(logpkg.Component("pebbledb")),
		subs:   make(map[int]func(K)),
	}
	s.logger.Debug("pebbledb.open",
		logpkg.Str("table", table),
		logpkg.Int("value_max_bytes", meta.ValueMaxBytes),
		logpkg.Int("batch_max_bytes", meta.BatchMaxBytes))
	return s, nil
}

// Close closes the underlying database.
func (s *Store[K, V]) Close() error {
	return s.db.Close()
}

// Meta returns the table's persisted metadata.
func (s *Store[K, V]) Meta() Meta { return s.meta }

// Query returns the row at key (at most one: the keyspace stores one row per
// key), nil when absent.
func (s *Store[K, V]) Query(ctx context.Context, key K) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ek, err := s.codec.EncodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	raw, err := s.db.Get(keyRow(s.table, ek))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	v, err := s.codec.DecodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return []V{v}, nil
}

// QueryAll scans the table in encoded-key order, decoding every row whose key
// satisfies match. A nil match selects all rows.
func (s *Store[K, V]) QueryAll(ctx context.Context, match func(K) bool) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := keyRowPrefix(s.table)
	var out []V
	var scanErr error
	err := s.db.Scan(prefix, func(k, v []byte) bool {
		key, err := s.codec.DecodeKey(k[len(prefix):])
		if err != nil {
			scanErr = fmt.Errorf("decode key: %w", err)
			return false
		}
		if match != nil && !match(key) {
			return true
		}
		val, err := s.codec.DecodeValue(v)
		if err != nil {
			scanErr = fmt.Errorf("decode value at %v: %w", key, err)
			return false
		}
		out = append(out, val)
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return out, nil
}

// ApplyBatch encodes and validates every operation against the table's
// ceilings, then commits them in one Pebble batch. Validation happens before
// any write, so a rejected batch takes no effect.
func (s *Store[K, V]) ApplyBatch(ctx context.Context, ops []backend.Operation[K, V]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type encoded struct {
		key []byte
		val []byte
	}
	rows := make([]encoded, 0, len(ops))
	total := 0
	for _, op := range ops {
		if op.Kind != backend.OpInsert && op.Kind != backend.OpUpdate {
			return fmt.Errorf("op %v: %w", op.Kind, backend.ErrBadOperation)
		}
		ek, err := s.codec.EncodeKey(op.Key)
		if err != nil {
			return fmt.Errorf("encode key %v: %w", op.Key, err)
		}
		ev, err := s.codec.EncodeValue(op.Value)
		if err != nil {
			return fmt.Errorf("encode value at %v: %w", op.Key, err)
		}
		if s.meta.ValueMaxBytes > 0 && len(ev) > s.meta.ValueMaxBytes {
			return fmt.Errorf("%d bytes at %v over ceiling %d: %w",
				len(ev), op.Key, s.meta.ValueMaxBytes, backend.ErrValueTooLarge)
		}
		rows = append(rows, encoded{key: keyRow(s.table, ek), val: ev})
		total += len(ek) + len(ev)
	}
	if s.meta.BatchMaxBytes > 0 && total > s.meta.BatchMaxBytes {
		return fmt.Errorf("%d bytes over ceiling %d: %w",
			total, s.meta.BatchMaxBytes, backend.ErrBatchTooLarge)
	}

	b := s.db.NewBatch()
	defer b.Close()
	for _, row := range rows {
		if err := b.Set(row.key, row.val, nil); err != nil {
			return err
		}
	}
	if err := s.db.CommitBatch(b); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	keys := make([]K, len(ops))
	for i, op := range ops {
		keys[i] = op.Key
	}
	s.notify(keys)
	return nil
}

// Subscribe implements backend.Notifier.
func (s *Store[K, V]) Subscribe(fn func(key K)) (cancel func()) {
	s.subMu.Lock()
	id := s.subSeq
	s.subSeq++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store[K, V]) notify(keys []K) {
	s.subMu.Lock()
	fns := make([]func(K), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		for _, k := range keys {
			fn(k)
		}
	}
}
