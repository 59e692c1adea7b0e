package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/rzbill/silt/backend"
)

// Options configures a memory store.
type Options[K comparable, V any] struct {
	// Compare orders keys for QueryAll scans. Nil keeps first-insert order.
	Compare func(a, b K) int

	// MaxBatchOps rejects batches with more operations than this.
	// 0 means no ceiling.
	MaxBatchOps int
}

// Store is an in-process backend.Backend. Safe for concurrent use.
type Store[K comparable, V any] struct {
	mu    sync.RWMutex
	rows  map[K][]V
	order []K          // first-insert order; used when tree is nil
	tree  *treemap.Map // comparator order; used when Options.Compare is set

	maxBatchOps int
	applyHook   func(ops []backend.Operation[K, V]) error
	applied     [][]backend.Operation[K, V]

	subMu  sync.Mutex
	subs   map[int]func(K)
	subSeq int
}

var _ backend.Backend[string, string] = (*Store[string, string])(nil)
var _ backend.Notifier[string] = (*Store[string, string])(nil)

// New creates an empty memory store.
func New[K comparable, V any](opts Options[K, V]) *Store[K, V] {
	s := &Store[K, V]{
		rows:        make(map[K][]V),
		maxBatchOps: opts.MaxBatchOps,
		subs:        make(map[int]func(K)),
	}
	if opts.Compare != nil {
		cmp := opts.Compare
		s.tree = treemap.NewWith(func(a, b interface{}) int {
			return cmp(a.(K), b.(K))
		})
	}
	return s
}

// Query returns the rows stored at key, nil if absent.
func (s *Store[K, V]) Query(ctx context.Context, key K) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[key]
	if len(rows) == 0 {
		return nil, nil
	}
	return append([]V(nil), rows...), nil
}

// QueryAll returns every row whose key satisfies match, in scan order.
func (s *Store[K, V]) QueryAll(ctx context.Context, match func(K) bool) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []V
	appendRows := func(k K) {
		if match != nil && !match(k) {
			return
		}
		out = append(out, s.rows[k]...)
	}
	if s.tree != nil {
		it := s.tree.Iterator()
		for it.Next() {
			appendRows(it.Key().(K))
		}
		return out, nil
	}
	for _, k := range s.order {
		appendRows(k)
	}
	return out, nil
}

// ApplyBatch validates ops, then commits them all or none. The apply hook
// runs before the row lock is taken, so readers see the pre-image until the
// commit instant even when the hook stalls or rejects.
func (s *Store[K, V]) ApplyBatch(ctx context.Context, ops []backend.Operation[K, V]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, op := range ops {
		if op.Kind != backend.OpInsert && op.Kind != backend.OpUpdate {
			return fmt.Errorf("op %v: %w", op.Kind, backend.ErrBadOperation)
		}
	}
	if s.maxBatchOps > 0 && len(ops) > s.maxBatchOps {
		return fmt.Errorf("%d ops over ceiling %d: %w", len(ops), s.maxBatchOps, backend.ErrBatchTooLarge)
	}

	s.mu.Lock()
	hook := s.applyHook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(ops); err != nil {
			return err
		}
	}

	s.mu.Lock()
	keys := make([]K, 0, len(ops))
	for _, op := range ops {
		s.put(op.Key, op.Value)
		keys = append(keys, op.Key)
	}
	s.applied = append(s.applied, append([]backend.Operation[K, V](nil), ops...))
	s.mu.Unlock()

	s.notify(keys)
	return nil
}

// put replaces the row list at key with a single row. Caller holds mu.
func (s *Store[K, V]) put(key K, value V) {
	if _, ok := s.rows[key]; !ok {
		if s.tree != nil {
			s.tree.Put(key, struct{}{})
		} else {
			s.order = append(s.order, key)
		}
	}
	s.rows[key] = []V{value}
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

// notify fans committed keys out to subscribers, outside the row lock.
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

// SetApplyHook installs fn ahead of every commit; a non-nil error rejects the
// batch untouched. Passing nil removes the hook.
func (s *Store[K, V]) SetApplyHook(fn func(ops []backend.Operation[K, V]) error) {
	s.mu.Lock()
	s.applyHook = fn
	s.mu.Unlock()
}

// SeedRows appends rows at key without going through ApplyBatch. Tests use it
// to fabricate the multi-row anomaly a real row store can exhibit.
func (s *Store[K, V]) SeedRows(key K, rows ...V) {
	s.mu.Lock()
	if _, ok := s.rows[key]; !ok {
		if s.tree != nil {
			s.tree.Put(key, struct{}{})
		} else {
			s.order = append(s.order, key)
		}
	}
	s.rows[key] = append(s.rows[key], rows...)
	s.mu.Unlock()
}

// AppliedBatches returns a copy of every batch committed so far, in order.
func (s *Store[K, V]) AppliedBatches() [][]backend.Operation[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]backend.Operation[K, V], len(s.applied))
	for i, b := range s.applied {
		out[i] = append([]backend.Operation[K, V](nil), b...)
	}
	return out
}

// Len returns the number of distinct keys stored.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
