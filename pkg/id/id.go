package id

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit identifier laid out big-endian as
// [8 bytes unix milliseconds][8 bytes sequence]. Byte order is generation
// order, so IDs work as naturally sorted keys.
type ID [16]byte

// Bytes returns a copy of the raw 16 bytes.
func (i ID) Bytes() []byte { b := make([]byte, 16); copy(b, i[:]); return b }

// String renders the ID as 32 lowercase hex characters. The encoding keeps
// byte order, so hex strings sort the same way Compare orders the IDs.
func (i ID) String() string { return hexString(i[:]) }

// Compare returns -1, 0, or 1 ordering the two IDs byte-wise.
func (i ID) Compare(other ID) int {
	for idx := 0; idx < 16; idx++ {
		if i[idx] < other[idx] {
			return -1
		}
		if i[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// Generator hands out strictly increasing IDs for one process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator returns a Generator starting from the current clock.
func NewGenerator() *Generator { return &Generator{} }

// NowMs reads the wall clock in milliseconds. Tests swap it to drive the
// generator deterministically.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns the next ID. A regressing clock is pinned to the last observed
// millisecond; a sequence exhausted within one millisecond waits for the
// clock to advance.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		if g.sequence == math.MaxUint64 {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}

	g.lastMs = ms
	return makeID(ms, g.sequence)
}

func makeID(ms int64, seq uint64) ID {
	var id ID
	binary.BigEndian.PutUint64(id[0:8], uint64(ms))
	binary.BigEndian.PutUint64(id[8:16], seq)
	return id
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0f]
	}
	return string(out)
}
