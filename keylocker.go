package silt

import (
	"sync"

	logpkg "github.com/rzbill/silt/pkg/log"
)

// keyLocker is the store's lock table: one exclusive section per key with a
// FIFO wait queue. Locks are not re-entrant; a holder acquiring its own key
// again deadlocks itself, which signals a pipeline bug upstream.
type keyLocker[K comparable] struct {
	mu      sync.Mutex
	held    map[K]struct{}
	waiters map[K][]chan struct{}
	logger  *logpkg.Logger
	metrics MetricsHook
}

func newKeyLocker[K comparable](logger *logpkg.Logger, metrics MetricsHook) *keyLocker[K] {
	return &keyLocker[K]{
		held:    make(map[K]struct{}),
		waiters: make(map[K][]chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Acquire blocks until key is free, then registers the caller as holder.
// Waiters are granted in arrival order.
func (l *keyLocker[K]) Acquire(key K) {
	l.mu.Lock()
	if _, taken := l.held[key]; !taken {
		l.held[key] = struct{}{}
		l.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	l.waiters[key] = append(l.waiters[key], ch)
	l.mu.Unlock()

	// Release hands ownership over by closing ch; the key never transits
	// through a free state while waiters queue.
	<-ch
}

// Release drops the holder registration for key and wakes the oldest waiter.
// Releasing a key with no holder is a logged no-op.
func (l *keyLocker[K]) Release(key K) {
	l.mu.Lock()
	if _, taken := l.held[key]; !taken {
		l.mu.Unlock()
		l.metrics.ObserveLockMisuse()
		l.logger.Warn("store.lock.misuse_release", logpkg.Any("key", key))
		return
	}
	queue := l.waiters[key]
	if len(queue) == 0 {
		delete(l.held, key)
		l.mu.Unlock()
		return
	}
	next := queue[0]
	if len(queue) == 1 {
		delete(l.waiters, key)
	} else {
		l.waiters[key] = queue[1:]
	}
	l.mu.Unlock()
	close(next)
}

// locked reports whether key currently has a holder.
func (l *keyLocker[K]) locked(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, taken := l.held[key]
	return taken
}
