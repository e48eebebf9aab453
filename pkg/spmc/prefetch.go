// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

// PrefetchCache is a per-consumer, non-shared circular byte buffer that
// batches reads from the ring to amortise shared-memory traffic. It is a
// pure throughput optimisation with a latency cost: bytes sit in the
// cache until a caller actually dequeues them.
//
// Cache operations never touch the ring's committed cursor. The
// consumer's shared progress cursor only advances, and is only flushed
// to the shared slot, when bytes leave the cache into the caller's
// buffer — not when they are prefetched into it — which keeps the
// back-pressure signal aligned with real consumer progress.
type PrefetchCache struct {
	buf []byte
	len int
}

// NewPrefetchCache creates a cache with the given byte capacity. A
// capacity of zero disables the cache: every read falls back to direct
// ring access.
func NewPrefetchCache(capacity uint64) *PrefetchCache {
	return &PrefetchCache{buf: make([]byte, capacity)}
}

// Capacity returns the cache's fixed byte capacity.
func (c *PrefetchCache) Capacity() uint64 { return uint64(len(c.buf)) }

// Enabled reports whether this cache has non-zero capacity.
func (c *PrefetchCache) Enabled() bool { return len(c.buf) > 0 }

// Len returns the number of bytes currently buffered but not yet
// delivered to a caller.
func (c *PrefetchCache) Len() uint64 { return uint64(c.len) }

// clear discards any buffered-but-undelivered bytes. Used when a
// droppable consumer resynchronises: those bytes may now lie outside the
// producer's live window.
func (c *PrefetchCache) clear() { c.len = 0 }

// refill pulls as many bytes as currently fit into free cache space from
// the ring, starting at the ring offset immediately after what is
// already buffered. It never advances state's cursor: prefetching is
// invisible to back-pressure until the bytes are actually delivered.
func (c *PrefetchCache) refill(r *Ring, state *ConsumerState) {
	readFrom := state.cursor + uint64(c.len)
	avail := r.committedCursor() - readFrom
	space := uint64(len(c.buf)) - uint64(c.len)
	batch := avail
	if batch > space {
		batch = space
	}
	if batch == 0 {
		return
	}
	r.storage.readAt(readFrom, c.buf[c.len:uint64(c.len)+batch])
	c.len += int(batch)
}

// peek copies len(dst) bytes into dst without removing them from the
// cache and without advancing state's cursor, refilling from the ring
// first if the cache does not yet hold enough. It returns false if the
// ring itself does not yet have that many bytes committed beyond state's
// cursor.
func (c *PrefetchCache) peek(r *Ring, state *ConsumerState, dst []byte) bool {
	need := uint64(len(dst))
	if need > uint64(len(c.buf)) {
		return false
	}
	if uint64(c.len) < need {
		c.refill(r, state)
		if uint64(c.len) < need {
			return false
		}
	}
	copy(dst, c.buf[:need])
	return true
}

// drop removes n already-peeked bytes from the front of the cache. The
// caller is responsible for advancing and flushing the consumer cursor;
// drop only manages the local buffer.
func (c *PrefetchCache) drop(n uint64) {
	copy(c.buf, c.buf[n:uint64(c.len)])
	c.len -= int(n)
}
