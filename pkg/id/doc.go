// Package id generates sortable 128-bit identifiers, used as store keys when
// the caller does not supply one.
//
// An ID packs 8 big-endian bytes of unix milliseconds followed by 8 bytes of
// per-millisecond sequence. The layout makes three orderings agree: byte-wise
// Compare, the lowercase-hex String form, and generation time. Keys minted
// from String therefore list back out of an ordered backend in the order they
// were written.
//
// Generator is safe for concurrent use and strictly monotonic within a
// process: a clock that steps backwards is pinned to the last observed
// millisecond, and a sequence exhausted inside one millisecond blocks until
// the clock advances.
//
//	g := id.NewGenerator()
//	key := g.Next().String() // 32 hex characters, sorts chronologically
package id
