package silt

import (
	"context"
	"time"

	"github.com/rzbill/silt/backend"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// runApplier applies sealed batches in emission order and releases their key
// locks. It owns the store's done signal and the notifier subscription.
func (s *Store[K, V]) runApplier() {
	defer func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
	}()
	for batch := range s.batches {
		s.applyBatch(batch)
	}
}

// applyBatch submits one batch atomically. Keys inside a batch are distinct:
// a key's lock is held from build to release, so a second operation for it
// cannot be built while one is in flight.
func (s *Store[K, V]) applyBatch(batch []backend.Operation[K, V]) {
	start := time.Now()
	err := s.backend.ApplyBatch(context.Background(), batch)
	elapsed := time.Since(start)
	s.metrics.ObserveBatchApply(elapsed, len(batch), err != nil)

	if err != nil {
		s.logger.Error("store.batch.apply_failed",
			logpkg.Int("ops", len(batch)), logpkg.Dur("elapsed", elapsed), logpkg.Err(err))
		if !s.opts.ReleaseOnApplyFailure {
			// Keys stay locked: the backend's state after a failed apply
			// is unknown, so later writes to them park instead of racing.
			return
		}
	} else {
		s.logger.Debug("store.batch.apply",
			logpkg.Int("ops", len(batch)), logpkg.Dur("elapsed", elapsed))
	}

	for _, op := range batch {
		s.locks.Release(op.Key)
	}
}
