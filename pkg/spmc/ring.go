// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

// Ring is the lock-free ring-buffer engine: byte-level circular storage
// plus the back-pressure core that coordinates exactly one producer and
// any number of reliable and droppable consumers. Ring is placement
// agnostic — it is built once over either heap memory or an attached
// shared-memory segment and behaves identically either way.
type Ring struct {
	storage  storage
	capacity uint64

	placement placement

	// claimed is producer-private: only the single producer goroutine or
	// process ever reads or writes it, so it needs no atomic.
	claimed uint64

	committed cursorCell
	slots     [MaxNoDropConsumers]cursorCell
	highWater cursorCell
}

// NewInProcessRing creates a ring usable by a single producer goroutine
// and any number of consumer goroutines within this process.
func NewInProcessRing(capacity uint64) *Ring {
	p := newHeapPlacement(capacity)
	return newRing(p, capacity)
}

func newRing(p placement, capacity uint64) *Ring {
	r := &Ring{
		storage:   newStorage(p.Bytes()),
		capacity:  capacity,
		placement: p,
		committed: p.Committed(),
		highWater: p.HighWater(),
	}
	for i := range r.slots {
		r.slots[i] = p.Slot(i)
	}
	r.claimed = r.committed.Load()
	return r
}

// Capacity returns the ring's fixed byte capacity.
func (r *Ring) Capacity() uint64 { return r.capacity }

func (r *Ring) slot(i int) cursorCell { return r.slots[i] }

// RegisterConsumer assigns state the lowest free slot index, initialises
// its shared cursor to the current committed value (a new reader starts
// from "live" data, it does not replay history), and caches the ring's
// byte region on state for direct access. It returns ErrTooManyConsumers
// if the slot table is full. Droppable consumers (state.DroppingAllowed()
// true) never call this: they hold no slot and exert no back-pressure.
func (r *Ring) RegisterConsumer(state *ConsumerState) error {
	lock := r.placement.Lock()
	lock.Lock()
	defer lock.Unlock()

	for i := 0; i < MaxNoDropConsumers; i++ {
		if r.slot(i).Load() != slotUninitialised {
			continue
		}
		committed := r.committed.Load()
		r.slot(i).Store(committed)

		state.index = uint8(i)
		state.cursor = committed
		state.queueBytes = r.storage.bytes

		if hw := r.highWater.Load(); uint64(i+1) > hw {
			r.highWater.Store(uint64(i + 1))
		}
		return nil
	}
	return ErrTooManyConsumers
}

// UnregisterConsumer resets state's slot to the unregistered sentinel,
// making it reusable by a future registration. It must be called from
// the reader's own thread or process: the producer may still be
// observing the cursor, so a producer-side release would be unsafe.
func (r *Ring) UnregisterConsumer(state *ConsumerState) {
	if !state.Registered() {
		return
	}
	lock := r.placement.Lock()
	lock.Lock()
	defer lock.Unlock()

	r.slot(int(state.index)).Store(slotUninitialised)
	state.index = indexUninitialised
}

// WriteAvailable returns the number of bytes the producer may currently
// write without overtaking any currently-registered reliable consumer.
// If no reliable consumers are registered it returns the full capacity:
// droppable consumers never exert back-pressure.
func (r *Ring) WriteAvailable() uint64 {
	hw := r.highWater.Load()
	if hw == 0 {
		return r.capacity
	}

	committed := r.committed.Load()
	var minCursor uint64
	found := false
	for i := 0; i < int(hw); i++ {
		v := r.slot(i).Load()
		if v == slotUninitialised {
			continue
		}
		if !found || v < minCursor {
			minCursor = v
			found = true
		}
	}
	if !found {
		return r.capacity
	}
	return r.capacity - (committed - minCursor)
}

// ReadAvailable returns the number of unconsumed bytes visible to state,
// i.e. committed - state.cursor.
func (r *Ring) ReadAvailable(state *ConsumerState) uint64 {
	return r.committed.Load() - state.cursor
}

// AcquireSpace reserves n bytes for the producer by advancing the
// producer-private claimed cursor, without moving committed, iff at
// least n bytes are currently writable. It returns false without
// mutating any cursor when space is insufficient.
func (r *Ring) AcquireSpace(n uint64) bool {
	if r.WriteAvailable() < n {
		return false
	}
	r.claimed = advance(r.claimed, n)
	return true
}

// ReleaseSpace publishes every byte reserved since the last release by
// storing committed = claimed with release ordering: consumers that
// observe the new committed value also observe every prior write to the
// ring bytes.
func (r *Ring) ReleaseSpace() {
	r.committed.Store(r.claimed)
}

// UpdateConsumerState flushes state's local cursor into its shared slot
// with release ordering, so the producer's next WriteAvailable sees the
// consumer's progress. It is a no-op for droppable consumers, which hold
// no slot.
func (r *Ring) UpdateConsumerState(state *ConsumerState) {
	if state.messageDropsAllowed || !state.Registered() {
		return
	}
	r.slot(int(state.index)).Store(state.cursor)
}

// committedCursor exposes the current committed value for invariant
// checks and tests.
func (r *Ring) committedCursor() uint64 { return r.committed.Load() }

// claimedCursor exposes the current claimed value for invariant checks
// and tests. Only safe to call from the producer's own goroutine.
func (r *Ring) claimedCursor() uint64 { return r.claimed }
