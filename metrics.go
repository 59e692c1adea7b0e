package silt

import (
	"time"

	"github.com/rzbill/silt/backend"
)

// MetricsHook receives pipeline timings. Implementations must be fast and
// non-blocking; hooks run on pipeline goroutines.
type MetricsHook interface {
	// ObserveBuild is called once per Put that reached a builder: kind is
	// OpInsert/OpUpdate for operations handed to the batcher, OpNone for
	// derived no-ops and failed builds. elapsed includes lock wait.
	ObserveBuild(elapsed time.Duration, kind backend.OpKind)

	// ObserveBatchApply is called once per sealed batch.
	ObserveBatchApply(elapsed time.Duration, numOps int, failed bool)

	// ObserveLockMisuse is called when a release finds no holder.
	ObserveLockMisuse()
}

// NoopMetrics is the default MetricsHook.
type NoopMetrics struct{}

func (NoopMetrics) ObserveBuild(time.Duration, backend.OpKind) {}
func (NoopMetrics) ObserveBatchApply(time.Duration, int, bool) {}
func (NoopMetrics) ObserveLockMisuse()                         {}
