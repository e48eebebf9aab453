// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

// AcquireRelease controls whether a push brackets its own acquire/release
// pair or relies on the caller having already reserved space externally
// (useful for higher-level batching of several pushes into one atomic
// publication).
type AcquireRelease int

const (
	// AcquireReleaseYes acquires space for this push and releases it once
	// every item has been copied. This is the common case.
	AcquireReleaseYes AcquireRelease = iota
	// AcquireReleaseNo assumes the caller already called AcquireSpace for
	// at least this many bytes and will call ReleaseSpace itself.
	AcquireReleaseNo
)

// frameItem is anything push can copy into the ring: a fixed-size header
// or an opaque payload span.
type frameItem interface {
	frameBytes() []byte
}

type rawBytes []byte

func (b rawBytes) frameBytes() []byte { return b }

func (h *Header) frameBytes() []byte { return h.bytes() }

// totalSize returns the sum of every item's byte length.
func totalSize(items []frameItem) uint64 {
	var n uint64
	for _, it := range items {
		n += uint64(len(it.frameBytes()))
	}
	return n
}

// pushItems atomically publishes head..tail as a single contiguous span:
// it computes the total size, acquires space for it (unless the caller
// already did via acquireRelease == AcquireReleaseNo), copies every item
// in order starting at the pre-acquisition claimed cursor, then releases
// the whole span in one store to committed. A reader can therefore never
// observe one item of the span without the rest.
func (r *Ring) pushItems(acquireRelease AcquireRelease, items ...frameItem) bool {
	n := totalSize(items)

	if acquireRelease == AcquireReleaseYes {
		if !r.AcquireSpace(n) {
			return false
		}
	}

	offset := r.claimedCursor() - n
	for _, it := range items {
		b := it.frameBytes()
		r.storage.writeAt(offset, b)
		offset += uint64(len(b))
	}

	if acquireRelease == AcquireReleaseYes {
		r.ReleaseSpace()
	}
	return true
}

// pushHeaderPayload is the common two-item push: a Header immediately
// followed by its payload, published atomically so a reader never sees a
// header without its payload.
func (r *Ring) pushHeaderPayload(h Header, payload []byte) bool {
	return r.pushItems(AcquireReleaseYes, &h, rawBytes(payload))
}

// pop implements the framing pop path, routing through cache when one is
// supplied and enabled, and falling back to direct ring access for a
// nil/disabled cache or a record too large for the cache to hold.
func (r *Ring) pop(cache *PrefetchCache, state *ConsumerState, header *Header, payload *[]byte) (bool, error) {
	if cache == nil || !cache.Enabled() {
		return r.popRecordDirect(state, header, payload)
	}
	return r.popRecordCached(cache, state, header, payload)
}

// popRecordCached is the cache-routed counterpart of popRecordDirect. It
// peeks the header and, once the full record size is known, the whole
// record from the cache (refilling it from the ring as needed) before
// committing to advancing state's cursor, preserving all-or-nothing
// consumption at the record boundary exactly like the direct path.
func (r *Ring) popRecordCached(cache *PrefetchCache, state *ConsumerState, header *Header, payload *[]byte) (bool, error) {
	available := r.ReadAvailable(state)

	if state.messageDropsAllowed && available > r.capacity {
		cache.clear()
		return false, r.resynchronise(state)
	}
	if available < headerSize {
		return false, nil
	}
	if headerSize > cache.Capacity() {
		return r.popRecordDirect(state, header, payload)
	}

	var hdrBuf [headerSize]byte
	if !cache.peek(r, state, hdrBuf[:]) {
		return false, nil
	}
	hdr := headerFromBytes(hdrBuf[:])

	if available < headerSize+hdr.Size {
		return false, nil
	}

	total := headerSize + hdr.Size
	if total > cache.Capacity() {
		// The record doesn't fit the cache at all: bypass it for this
		// read rather than stall waiting for space that will never free.
		// The header (and perhaps more) is already sitting in the cache
		// describing a byte range state.cursor has not advanced past yet;
		// left buffered, the next call's peek would hand back these same
		// stale bytes instead of refilling from the current cursor.
		cache.clear()
		return r.popRecordDirect(state, header, payload)
	}

	full := make([]byte, total)
	if !cache.peek(r, state, full) {
		return false, nil
	}

	if state.messageDropsAllowed {
		if committed := r.committedCursor(); committed-state.cursor > r.capacity {
			cache.clear()
			return false, r.resynchronise(state)
		}
	}

	cache.drop(total)
	state.cursor += total
	r.UpdateConsumerState(state)
	state.dataRange.SetReadAvailable(available)
	state.dataRange.Advance(total)

	*header = headerFromBytes(full[:headerSize])
	*payload = full[headerSize:]
	return true, nil
}

// popRecordDirect implements the framing pop path directly against ring
// storage: acquire-load available, bail out without partial consumption
// if the header or payload is not yet fully committed, detect
// droppable-consumer overwrite, copy the payload, advance the local
// cursor, and flush it to the shared slot.
func (r *Ring) popRecordDirect(state *ConsumerState, header *Header, payload *[]byte) (bool, error) {
	available := r.ReadAvailable(state)

	if state.messageDropsAllowed && available > r.capacity {
		return false, r.resynchronise(state)
	}
	if available < headerSize {
		return false, nil
	}

	var hdrBuf [headerSize]byte
	r.storage.readAt(state.cursor, hdrBuf[:])
	hdr := headerFromBytes(hdrBuf[:])

	if available < headerSize+hdr.Size {
		return false, nil
	}

	// Re-check immediately before trusting the payload bytes: the
	// producer may have wrapped over this consumer's unread data between
	// the first check and now.
	if state.messageDropsAllowed {
		if committed := r.committedCursor(); committed-state.cursor > r.capacity {
			return false, r.resynchronise(state)
		}
	}

	buf := make([]byte, hdr.Size)
	r.storage.readAt(state.cursor+headerSize, buf)

	total := headerSize + hdr.Size
	state.cursor += total
	r.UpdateConsumerState(state)
	state.dataRange.SetReadAvailable(available)
	state.dataRange.Advance(total)

	*header = hdr
	*payload = buf
	return true, nil
}

// popPOD reads a fixed-size value directly from ring storage without
// expecting a framing Header, mirroring the original push<POD>/pop<POD>
// overload pair used for advanced callers that manage their own framing:
// producer and consumer must agree on the value's size out of band, and
// POD records must never be interleaved on the same ring as Header-framed
// ones.
func (r *Ring) popPOD(state *ConsumerState, dst []byte) (bool, error) {
	size := uint64(len(dst))
	available := r.ReadAvailable(state)

	if state.messageDropsAllowed && available > r.capacity {
		return false, r.resynchronise(state)
	}
	if available < size {
		return false, nil
	}

	r.storage.readAt(state.cursor, dst)
	state.cursor += size
	r.UpdateConsumerState(state)
	return true, nil
}

// resynchronise resets a droppable consumer to the current committed
// cursor after it has fallen more than capacity bytes behind, discarding
// the in-flight record.
func (r *Ring) resynchronise(state *ConsumerState) error {
	state.cursor = r.committedCursor()
	state.dataRange = DataRange{}
	return ErrResynchronised
}
