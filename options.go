package silt

import (
	"reflect"
	"time"

	logpkg "github.com/rzbill/silt/pkg/log"
)

// Defaults applied by Open when the corresponding Options field is zero.
const (
	DefaultGroupingTimeout = 100 * time.Millisecond
	DefaultGroupMaxSize    = 30
	DefaultBuildWorkers    = 4
)

// Options configures a Store. The zero value is usable.
type Options[K comparable, V any] struct {
	// GroupingTimeout is the quiet period that seals a batch window: the
	// timer restarts on every arriving operation. Values under a
	// millisecond effectively disable debouncing. 0 means
	// DefaultGroupingTimeout.
	GroupingTimeout time.Duration

	// GroupMaxSize seals a window when it reaches this many operations,
	// keeping encoded batches under the backend's payload ceiling.
	// 0 means DefaultGroupMaxSize.
	GroupMaxSize int

	// Merge combines the stored value with an incoming one. Nil means
	// last-write-wins (the incoming value replaces the stored one).
	Merge func(current, incoming V) V

	// Equal compares a merge result with the stored value; equal results
	// resolve to a no-op. Nil means reflect.DeepEqual.
	Equal func(a, b V) bool

	// BuildWorkers sizes the builder pool. Builds for distinct keys run
	// concurrently; a build parked on a contended key occupies its worker.
	// 0 means DefaultBuildWorkers.
	BuildWorkers int

	// Logger receives pipeline events. Nil discards them.
	Logger *logpkg.Logger

	// Metrics receives pipeline timings. Nil means NoopMetrics.
	Metrics MetricsHook

	// OnChange, when set and the backend implements backend.Notifier,
	// is subscribed at Open and cancelled when the pipeline drains.
	// It is called from backend commit paths and must not block.
	OnChange func(key K)

	// ReleaseOnApplyFailure releases a failed batch's key locks after the
	// failure is logged. The default (false) keeps them held: the backend's
	// partial state after an error is unknown, so later writes to those
	// keys park rather than risk double application. Enable it when
	// availability matters more than that containment.
	ReleaseOnApplyFailure bool
}

func (o Options[K, V]) withDefaults() Options[K, V] {
	if o.GroupingTimeout <= 0 {
		o.GroupingTimeout = DefaultGroupingTimeout
	}
	if o.GroupMaxSize <= 0 {
		o.GroupMaxSize = DefaultGroupMaxSize
	}
	if o.BuildWorkers <= 0 {
		o.BuildWorkers = DefaultBuildWorkers
	}
	if o.Merge == nil {
		o.Merge = func(_, incoming V) V { return incoming }
	}
	if o.Equal == nil {
		o.Equal = func(a, b V) bool { return reflect.DeepEqual(a, b) }
	}
	if o.Logger == nil {
		o.Logger = logpkg.Nop()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	return o
}
