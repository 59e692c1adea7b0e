package silt

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/rzbill/silt/backend"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// Stage buffer sizes. The intake ahead of the builders is unbounded; these
// only smooth handoff between pipeline goroutines.
const (
	buildOutBuffer = 64
	batchBuffer    = 4
)

// Store coalesces keyed writes into atomic backend batches. One Store owns
// one pipeline; see the package documentation for the stage layout.
type Store[K comparable, V any] struct {
	backend backend.Backend[K, V]
	opts    Options[K, V]
	logger  *logpkg.Logger
	metrics MetricsHook

	locks    *keyLocker[K]
	intake   *intake[putRequest[K, V]]
	buildOut chan backend.Operation[K, V]
	batches  chan []backend.Operation[K, V]

	buildWG     sync.WaitGroup
	done        chan struct{}
	unsubscribe func()
}

// Open starts a store pipeline over b. The returned store accepts Puts until
// Close.
func Open[K comparable, V any](b backend.Backend[K, V], opts Options[K, V]) (*Store[K, V], error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	opts = opts.withDefaults()

	s := &Store[K, V]{
		backend:  b,
		opts:     opts,
		logger:   opts.Logger.With(logpkg.Component("store")),
		metrics:  opts.Metrics,
		intake:   newIntake[putRequest[K, V]](),
		buildOut: make(chan backend.Operation[K, V], buildOutBuffer),
		batches:  make(chan []backend.Operation[K, V], batchBuffer),
		done:     make(chan struct{}),
	}
	s.locks = newKeyLocker[K](s.logger, s.metrics)

	if opts.OnChange != nil {
		if n, ok := b.(backend.Notifier[K]); ok {
			s.unsubscribe = n.Subscribe(opts.OnChange)
		} else {
			s.logger.Debug("store.notify.unsupported")
		}
	}

	for i := 0; i < opts.BuildWorkers; i++ {
		s.buildWG.Add(1)
		go s.runBuilder()
	}
	go func() {
		s.buildWG.Wait()
		close(s.buildOut)
	}()
	go s.runBatcher()
	go s.runApplier()

	s.logger.Debug("store.open",
		logpkg.Int("build_workers", opts.BuildWorkers),
		logpkg.Dur("grouping_timeout", opts.GroupingTimeout),
		logpkg.Int("group_max_size", opts.GroupMaxSize))
	return s, nil
}

// Put enqueues an upsert for key and returns without waiting for it to
// resolve. It fails only on a nil key or value, or once the store is closed;
// pipeline failures surface through logs and metrics, never here.
func (s *Store[K, V]) Put(key K, value V) error {
	if isNil(key) {
		return ErrNilKey
	}
	if isNil(value) {
		return ErrNilValue
	}
	if !s.intake.push(putRequest[K, V]{key: key, value: value}) {
		return ErrClosed
	}
	return nil
}

// GetOnce reads the current value at key, bypassing the write pipeline. It
// returns ErrNotFound for an absent key. More than one stored row is an
// anomaly: the first row wins and the rest are logged.
func (s *Store[K, V]) GetOnce(ctx context.Context, key K) (V, error) {
	var zero V
	if isNil(key) {
		return zero, ErrNilKey
	}
	rows, err := s.backend.Query(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("query: %w", err)
	}
	switch {
	case len(rows) == 0:
		return zero, ErrNotFound
	case len(rows) > 1:
		s.logger.Warn("store.get_once.multi",
			logpkg.Any("key", key), logpkg.Int("rows", len(rows)))
	}
	return rows[0], nil
}

// GetAllOnce reads every value whose key satisfies match, in the backend's
// iteration order. A nil match selects everything. Like GetOnce it is
// unsynchronized with in-flight writes.
func (s *Store[K, V]) GetAllOnce(ctx context.Context, match func(K) bool) ([]V, error) {
	rows, err := s.backend.QueryAll(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	return rows, nil
}

// Close stops intake (Put returns ErrClosed), drains queued requests through
// the builders, flushes the open batch window, and waits for queued batches
// to apply. If ctx expires first, draining continues in the background and
// ctx.Err() is returned. A builder parked on a key whose batch failed can
// park its drain forever; that is the documented stuck-lock trade-off.
func (s *Store[K, V]) Close(ctx context.Context) error {
	s.intake.close()
	select {
	case <-s.done:
		s.logger.Debug("store.close.drained")
		return nil
	case <-ctx.Done():
		s.logger.Warn("store.close.timeout", logpkg.Int("queued", s.intake.depth()))
		return ctx.Err()
	}
}

// isNil reports whether v is nil or a typed nil (pointer, map, slice, chan,
// func, interface). Value kinds are never nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
