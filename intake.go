package silt

import "sync"

// intake is the unbounded, ordered queue between Put and the builder pool.
// push never blocks; pop blocks until an item arrives or the queue is closed
// and drained. Waiters are woken by closing-and-replacing the notify channel,
// so every parked pop rechecks the queue after each push.
type intake[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	closed bool
}

func newIntake[T any]() *intake[T] {
	return &intake[T]{notify: make(chan struct{})}
}

// push appends v in arrival order. It reports false once the intake is
// closed; v is dropped in that case.
func (in *intake[T]) push(v T) bool {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return false
	}
	in.queue = append(in.queue, v)
	ch := in.notify
	in.notify = make(chan struct{})
	in.mu.Unlock()
	close(ch)
	return true
}

// pop removes and returns the oldest item. It returns ok=false only when the
// intake is closed and fully drained.
func (in *intake[T]) pop() (T, bool) {
	for {
		in.mu.Lock()
		if len(in.queue) > 0 {
			v := in.queue[0]
			in.queue = in.queue[1:]
			if len(in.queue) == 0 {
				in.queue = nil
			}
			in.mu.Unlock()
			return v, true
		}
		if in.closed {
			in.mu.Unlock()
			var zero T
			return zero, false
		}
		ch := in.notify
		in.mu.Unlock()
		<-ch
	}
}

// close stops push; queued items keep draining through pop.
func (in *intake[T]) close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	ch := in.notify
	in.notify = make(chan struct{})
	in.mu.Unlock()
	close(ch)
}

// depth returns the number of queued items.
func (in *intake[T]) depth() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}
