package silt

import (
	"time"

	"github.com/rzbill/silt/backend"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// runBatcher windows builder output into batches. A window seals when the
// quiet timer fires (it restarts on every arrival) or when the window holds
// GroupMaxSize operations, whichever first; a new window opens immediately.
// Operations keep arrival order inside a window and windows are emitted FIFO.
// When the builder stage closes, the open window is flushed before exit.
func (s *Store[K, V]) runBatcher() {
	defer close(s.batches)

	var window []backend.Operation[K, V]
	timer := time.NewTimer(s.opts.GroupingTimeout)
	defer timer.Stop()
	stopTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
	stopTimer() // idle until the first arrival

	seal := func() {
		if len(window) == 0 {
			return
		}
		batch := window
		window = nil
		s.logger.Debug("store.batch.seal", logpkg.Int("ops", len(batch)))
		s.batches <- batch
	}

	for {
		select {
		case op, ok := <-s.buildOut:
			if !ok {
				stopTimer()
				seal()
				return
			}
			window = append(window, op)
			if len(window) >= s.opts.GroupMaxSize {
				stopTimer()
				seal()
				continue
			}
			stopTimer()
			timer.Reset(s.opts.GroupingTimeout)

		case <-timer.C:
			seal()
		}
	}
}
