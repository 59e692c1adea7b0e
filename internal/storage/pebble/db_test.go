package pebblestore

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type testMetrics struct {
	read         int
	batchCommits int
	batchOps     int
	batchBytes   int
}

func (m *testMetrics) ObserveRead(d time.Duration, bytes int) { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, numOps int, bytes int) {
	m.batchCommits++
	m.batchOps += numOps
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	val := []byte("v1")
	if err := db.Set(key, val); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("got %q want %q", got, val)
	}
	if metrics.read == 0 {
		t.Fatal("read metrics recorded no bytes")
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: got %v want ErrNotFound", err)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	db, metrics := newTestDB(t)

	b := db.NewBatch()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	if metrics.batchCommits != 1 {
		t.Fatalf("batch commits: got %d want 1", metrics.batchCommits)
	}
	if metrics.batchOps != 2 {
		t.Fatalf("batch ops: got %d want 2", metrics.batchOps)
	}
	if metrics.batchBytes <= 0 {
		t.Fatal("batch bytes not recorded")
	}
}

func TestScanHonorsPrefix(t *testing.T) {
	db, _ := newTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.Set([]byte(fmt.Sprintf("t/%02d", i)), []byte("v")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := db.Set([]byte("u/outside"), []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}

	var keys []string
	err := db.Scan([]byte("t/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 5 {
		t.Fatalf("scanned %d keys want 5", len(keys))
	}
	for i, k := range keys {
		if want := fmt.Sprintf("t/%02d", i); k != want {
			t.Fatalf("key %d: got %q want %q", i, k, want)
		}
	}
}

func TestScanEarlyStop(t *testing.T) {
	db, _ := newTestDB(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := db.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	seen := 0
	if err := db.Scan(nil, func(k, v []byte) bool {
		seen++
		return seen < 2
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if seen != 2 {
		t.Fatalf("visited %d keys want 2", seen)
	}
}

func TestParseFsyncMode(t *testing.T) {
	cases := []struct {
		in      string
		want    FsyncMode
		wantErr bool
	}{
		{"", FsyncModeAlways, false},
		{"always", FsyncModeAlways, false},
		{"interval", FsyncModeInterval, false},
		{"never", FsyncModeNever, false},
		{"sometimes", FsyncModeUnspecified, true},
	}
	for _, tc := range cases {
		got, err := ParseFsyncMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %v want %v", tc.in, got, tc.want)
		}
	}
}
