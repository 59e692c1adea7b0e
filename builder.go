package silt

import (
	"context"
	"fmt"
	"time"

	"github.com/rzbill/silt/backend"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// putRequest is one enqueued Put.
type putRequest[K comparable, V any] struct {
	key   K
	value V
}

// runBuilder is one builder worker: it drains the intake, derives operations
// under the key lock, and feeds non-no-op results to the batcher.
func (s *Store[K, V]) runBuilder() {
	defer s.buildWG.Done()
	for {
		req, ok := s.intake.pop()
		if !ok {
			return
		}
		s.buildOne(req)
	}
}

// buildOne resolves a single request. The key lock is held across the
// backend read and, for insert/update results, handed to the batch; no-ops
// and failed builds release it here.
func (s *Store[K, V]) buildOne(req putRequest[K, V]) {
	start := time.Now()
	s.locks.Acquire(req.key)

	op, err := s.derive(req)
	if err != nil {
		s.locks.Release(req.key)
		s.metrics.ObserveBuild(time.Since(start), backend.OpNone)
		s.logger.Warn("store.build.failed", logpkg.Any("key", req.key), logpkg.Err(err))
		return
	}
	if op.Kind == backend.OpNone {
		s.locks.Release(req.key)
		s.metrics.ObserveBuild(time.Since(start), backend.OpNone)
		return
	}
	s.metrics.ObserveBuild(time.Since(start), op.Kind)
	s.buildOut <- op
}

// derive computes the pending operation for req against current backend
// state: absent key → insert, changed merge result → update, unchanged →
// no-op. Failures anywhere in the read/merge path surface as errors so the
// caller can downgrade them; a panicking Merge/Equal is contained the same
// way.
func (s *Store[K, V]) derive(req putRequest[K, V]) (op backend.Operation[K, V], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("merge: %v", r)
		}
	}()

	rows, err := s.backend.Query(context.Background(), req.key)
	if err != nil {
		return op, fmt.Errorf("query: %w", err)
	}
	op.Key = req.key
	if len(rows) == 0 {
		op.Kind = backend.OpInsert
		op.Value = req.value
		return op, nil
	}
	if len(rows) > 1 {
		s.logger.Warn("store.build.multi_rows",
			logpkg.Any("key", req.key), logpkg.Int("rows", len(rows)))
	}
	current := rows[0]
	merged := s.opts.Merge(current, req.value)
	if s.opts.Equal(merged, current) {
		op.Kind = backend.OpNone
		return op, nil
	}
	op.Kind = backend.OpUpdate
	op.Value = merged
	return op, nil
}
