package kv

import (
	"sync"
	"time"

	"github.com/rzbill/silt/backend"
)

// coalesceStats is a silt.MetricsHook counting what the pipeline did with a
// bulk ingest: how many writes landed as inserts/updates, how many coalesced
// away, and how many batches carried them.
type coalesceStats struct {
	mu      sync.Mutex
	inserts int
	updates int
	noops   int
	batches int
}

func (s *coalesceStats) ObserveBuild(_ time.Duration, kind backend.OpKind) {
	s.mu.Lock()
	switch kind {
	case backend.OpInsert:
		s.inserts++
	case backend.OpUpdate:
		s.updates++
	default:
		s.noops++
	}
	s.mu.Unlock()
}

func (s *coalesceStats) ObserveBatchApply(_ time.Duration, _ int, failed bool) {
	s.mu.Lock()
	if !failed {
		s.batches++
	}
	s.mu.Unlock()
}

func (s *coalesceStats) ObserveLockMisuse() {}

func (s *coalesceStats) snapshot() (inserts, updates, noops, batches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts, s.updates, s.noops, s.batches
}
