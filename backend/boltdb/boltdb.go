package boltdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/rzbill/silt/backend"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// DefaultBucket names the bucket used when Options.Bucket is empty.
const DefaultBucket = "default"

// Options configures Open.
type Options[K comparable, V any] struct {
	// Path is the database file. Required (see OpenTemp for tests).
	Path string

	// Codec maps keys and values to stored bytes. Required.
	Codec backend.Codec[K, V]

	// Bucket isolates this store's rows. Empty means DefaultBucket.
	Bucket string

	// ValueMaxBytes and BatchMaxBytes are payload ceilings enforced on
	// ApplyBatch. 0 disables the respective check.
	ValueMaxBytes int
	BatchMaxBytes int

	// Logger receives driver events. Nil discards them.
	Logger *logpkg.Logger
}

// Store is a bbolt-backed backend.Backend: one bucket per store, one write
// transaction per ApplyBatch, so batch atomicity is the transaction's.
type Store[K comparable, V any] struct {
	db     *bolt.DB
	bucket []byte
	codec  backend.Codec[K, V]
	opts   Options[K, V]
	logger *logpkg.Logger

	subMu  sync.Mutex
	subs   map[int]func(K)
	subSeq int
}

var _ backend.Backend[string, []byte] = (*Store[string, []byte])(nil)
var _ backend.Notifier[string] = (*Store[string, []byte])(nil)

// Open opens (or creates) the database file and ensures the bucket.
func Open[K comparable, V any](opts Options[K, V]) (*Store[K, V], error) {
	if opts.Path == "" {
		return nil, errors.New("boltdb: Options.Path is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("boltdb: Options.Codec is required")
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.Nop()
	}

	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", opts.Path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltdb: ensure bucket: %w", err)
	}

	s := &Store[K, V]{
		db:     db,
		bucket: []byte(bucket),
		codec:  opts.Codec,
		opts:   opts,
		logger: logger.With(logpkg.Component("boltdb")),
		subs:   make(map[int]func(K)),
	}
	s.logger.Debug("boltdb.open", logpkg.Str("path", opts.Path), logpkg.Str("bucket", bucket))
	return s, nil
}

// OpenTemp opens a throwaway store under the OS temp directory, filling
// Options.Path with a unique file. Callers remove the file via Destroy.
func OpenTemp[K comparable, V any](opts Options[K, V]) (*Store[K, V], error) {
	opts.Path = filepath.Join(os.TempDir(), "silt-bolt-"+uuid.NewString()+".db")
	return Open(opts)
}

// Close closes the database file.
func (s *Store[K, V]) Close() error {
	return s.db.Close()
}

// Destroy closes the database and removes its file.
func (s *Store[K, V]) Destroy() error {
	path := s.db.Path()
	if err := s.db.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Query returns the row at key (at most one per key), nil when absent.
func (s *Store[K, V]) Query(ctx context.Context, key K) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ek, err := s.codec.EncodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	var rows []V
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get(ek)
		if raw == nil {
			return nil
		}
		v, err := s.codec.DecodeValue(raw)
		if err != nil {
			return fmt.Errorf("decode value: %w", err)
		}
		rows = []V{v}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryAll walks the bucket in encoded-key order, decoding every row whose
// key satisfies match. A nil match selects all rows.
func (s *Store[K, V]) QueryAll(ctx context.Context, match func(K) bool) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []V
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			key, err := s.codec.DecodeKey(k)
			if err != nil {
				return fmt.Errorf("decode key: %w", err)
			}
			if match != nil && !match(key) {
				return nil
			}
			val, err := s.codec.DecodeValue(v)
			if err != nil {
				return fmt.Errorf("decode value at %v: %w", key, err)
			}
			out = append(out, val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyBatch encodes and validates every operation against the ceilings,
// then writes them inside one transaction. A validation or write error rolls
// the whole transaction back.
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
		if s.opts.ValueMaxBytes > 0 && len(ev) > s.opts.ValueMaxBytes {
			return fmt.Errorf("%d bytes at %v over ceiling %d: %w",
				len(ev), op.Key, s.opts.ValueMaxBytes, backend.ErrValueTooLarge)
		}
		rows = append(rows, encoded{key: ek, val: ev})
		total += len(ek) + len(ev)
	}
	if s.opts.BatchMaxBytes > 0 && total > s.opts.BatchMaxBytes {
		return fmt.Errorf("%d bytes over ceiling %d: %w",
			total, s.opts.BatchMaxBytes, backend.ErrBatchTooLarge)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, row := range rows {
			if err := b.Put(row.key, row.val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
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
