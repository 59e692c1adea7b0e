package id

import (
	"bytes"
	"encoding/hex"
	"sort"
	"sync/atomic"
	"testing"
	"time"
)

// pinClock fixes NowMs to a controllable value and restores it on cleanup.
func pinClock(t *testing.T, start int64) *atomic.Int64 {
	t.Helper()
	var now atomic.Int64
	now.Store(start)
	orig := NowMs
	NowMs = now.Load
	t.Cleanup(func() { NowMs = orig })
	return &now
}

func TestHexStringRoundTrip(t *testing.T) {
	pinClock(t, 1_700_000_000_000)

	got := NewGenerator().Next()
	s := got.String()
	if len(s) != 32 {
		t.Fatalf("hex length: got %d want 32", len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	if !bytes.Equal(decoded, got.Bytes()) {
		t.Fatalf("round trip: got %x want %x", decoded, got.Bytes())
	}
}

// Keys minted from String list back out of an ordered backend in generation
// order, so the hex form has to sort exactly like Compare.
func TestHexOrderMatchesCompare(t *testing.T) {
	now := pinClock(t, 1_700_000_000_000)
	g := NewGenerator()

	var ids []ID
	for i := 0; i < 200; i++ {
		ids = append(ids, g.Next())
		if i%7 == 0 {
			now.Add(1)
		}
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatal("hex keys not sorted in generation order")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1].Compare(ids[i]) != -1 {
			t.Fatalf("id %d not greater than predecessor", i)
		}
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	pinClock(t, 42)
	g := NewGenerator()

	prev := g.Next()
	for i := 0; i < 100; i++ {
		next := g.Next()
		if prev.Compare(next) != -1 {
			t.Fatalf("id %d did not advance: %s then %s", i, prev, next)
		}
		prev = next
	}
}

func TestClockRegressionPins(t *testing.T) {
	now := pinClock(t, 1000)
	g := NewGenerator()

	before := g.Next()
	now.Store(500)
	after := g.Next()
	if before.Compare(after) != -1 {
		t.Fatalf("regressed clock broke ordering: %s then %s", before, after)
	}
}

func TestSequenceOverflowWaitsForClock(t *testing.T) {
	now := pinClock(t, 2000)
	g := NewGenerator()
	g.Next()
	g.sequence = ^uint64(0) // exhausted for this millisecond

	done := make(chan ID, 1)
	go func() { done <- g.Next() }()

	select {
	case id := <-done:
		t.Fatalf("overflowing Next returned without clock advance: %s", id)
	case <-time.After(20 * time.Millisecond):
	}
	now.Store(2001)

	select {
	case id := <-done:
		if got := id.String()[16:]; got != "0000000000000000" {
			t.Fatalf("sequence after overflow: got %s want zero", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for overflow handling")
	}
}
