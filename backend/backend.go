package backend

import (
	"context"
	"errors"
)

// Sentinel errors drivers return from ApplyBatch. The pipeline drops a batch
// on any apply error; these let callers tell ceiling rejections from failures.
var (
	// ErrBatchTooLarge rejects a batch whose encoded payload exceeds the
	// driver's transactional ceiling. The batch takes no effect.
	ErrBatchTooLarge = errors.New("batch exceeds payload ceiling")

	// ErrValueTooLarge rejects a batch containing a single encoded value
	// above the driver's per-value ceiling.
	ErrValueTooLarge = errors.New("value exceeds payload ceiling")

	// ErrBadOperation rejects a batch containing an operation kind the
	// driver does not apply (anything other than OpInsert/OpUpdate).
	ErrBadOperation = errors.New("operation kind not applicable")
)

// OpKind tags a derived write operation.
type OpKind uint8

const (
	// OpNone is a derived no-op. It never reaches a driver: the pipeline
	// filters it out before sealing a batch.
	OpNone OpKind = iota
	// OpInsert writes a row for a key absent at build time.
	OpInsert
	// OpUpdate replaces the row for a key present at build time.
	OpUpdate
)

// String returns the lowercase kind name.
func (k OpKind) String() string {
	switch k {
	case OpNone:
		return "none"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Operation is one keyed write inside a batch.
type Operation[K comparable, V any] struct {
	Kind  OpKind
	Key   K
	Value V
}

// Backend is the transactional row store the pipeline writes through.
//
// Implementations must be safe for concurrent Query/QueryAll calls and for
// one in-flight ApplyBatch per store instance alongside reads. Query returns
// all rows at a key (more than one is an anomaly the caller logs, not an
// error) and a nil slice when the key is absent.
type Backend[K comparable, V any] interface {
	// Query reads the rows stored at key. No side effects.
	Query(ctx context.Context, key K) ([]V, error)

	// QueryAll reads every row whose key satisfies match, in the driver's
	// iteration order. A nil match selects all rows.
	QueryAll(ctx context.Context, match func(K) bool) ([]V, error)

	// ApplyBatch applies ops in order inside one transaction: all take
	// effect or none do. Drivers must reject, not partially apply,
	// oversized batches (ErrBatchTooLarge, ErrValueTooLarge) and non-write
	// kinds (ErrBadOperation).
	ApplyBatch(ctx context.Context, ops []Operation[K, V]) error
}

// Notifier is implemented by drivers that announce committed row changes.
// Subscribe registers fn to be called with each changed key after a batch
// commits; the returned cancel unregisters it. fn must not block.
type Notifier[K comparable] interface {
	Subscribe(fn func(key K)) (cancel func())
}
