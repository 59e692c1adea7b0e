package pebbledb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/rzbill/silt/internal/storage/pebble"
)

// Meta holds per-table metadata and payload ceilings. It is persisted next to
// the table's rows so ceilings survive restarts and later opens with
// different options keep the limits the table was created with.
type Meta struct {
	Table         string `json:"table"`
	CreatedAtMs   int64  `json:"createdAtMs"`
	ValueMaxBytes int    `json:"valueMaxBytes"`
	BatchMaxBytes int    `json:"batchMaxBytes"`
}

// MetaDefaults returns ceilings for new tables: 1 MiB per encoded value,
// 4 MiB per encoded batch.
func MetaDefaults() Meta {
	return Meta{
		ValueMaxBytes: 1 << 20,
		BatchMaxBytes: 4 << 20,
	}
}

// metaStore is the slice of pebblestore.DB that ensureMeta touches.
type metaStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// ensureMeta loads the table's meta record, creating it from defaults (with
// overrides applied) when absent. Only a missing or corrupted record is
// rewritten; a failing read must not reset the persisted ceilings, so any
// other Get error is returned as-is. Idempotent.
func ensureMeta(db metaStore, table string, overrides Meta) (Meta, error) {
	key := keyMeta(table)
	b, err := db.Get(key)
	switch {
	case err == nil && len(b) > 0:
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// corrupted record: fall through and rewrite
	case err == nil || errors.Is(err, pebblestore.ErrNotFound):
		// absent (or empty): create below
	default:
		return Meta{}, fmt.Errorf("load table meta %q: %w", table, err)
	}

	m := MetaDefaults()
	m.Table = table
	m.CreatedAtMs = time.Now().UnixMilli()
	if overrides.ValueMaxBytes > 0 {
		m.ValueMaxBytes = overrides.ValueMaxBytes
	}
	if overrides.BatchMaxBytes > 0 {
		m.BatchMaxBytes = overrides.BatchMaxBytes
	}
	bytes, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, bytes); err != nil {
		return Meta{}, err
	}
	return m, nil
}
