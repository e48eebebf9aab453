// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import "fmt"

// DataRange records the window of unconsumed bytes a consumer saw at its
// most recent pop and how much of that window the pop consumed. Every
// pop re-reads the committed cursor and resets the range; pops do not
// drain a previously claimed range locally.
type DataRange struct {
	consumed      uint64
	readAvailable uint64
}

// Empty reports whether the range has no unconsumed bytes remaining.
func (r *DataRange) Empty() bool { return r.readAvailable == 0 }

// ReadAvailable returns the number of unconsumed bytes left in the range.
func (r *DataRange) ReadAvailable() uint64 { return r.readAvailable }

// SetReadAvailable resets the range to size unconsumed bytes.
func (r *DataRange) SetReadAvailable(size uint64) {
	r.consumed = 0
	r.readAvailable = size
}

// Consumed returns the number of bytes consumed so far from this range.
func (r *DataRange) Consumed() uint64 { return r.consumed }

// Advance records that size further bytes have been consumed from the
// range.
func (r *DataRange) Advance(size uint64) {
	r.consumed += size
	r.readAvailable -= size
}

// ConsumerState is per-reader state, held locally by each reader and
// never shared: which slot (if any) this reader occupies, its local
// mirror of the consumed cursor, a cached pointer to the ring bytes, the
// currently claimed data range, and whether this reader has opted into
// message dropping.
type ConsumerState struct {
	index               uint8
	cursor              uint64
	queueBytes          []byte
	dataRange           DataRange
	messageDropsAllowed bool
}

// NewReliableConsumerState builds state for a consumer that will exert
// back-pressure on the producer (it must be registered into a slot
// before use).
func NewReliableConsumerState() *ConsumerState {
	return &ConsumerState{index: indexUninitialised, messageDropsAllowed: false}
}

// NewDroppableConsumerState builds state for a consumer that holds no
// slot and may silently lose records when it falls more than capacity
// bytes behind.
func NewDroppableConsumerState() *ConsumerState {
	return &ConsumerState{index: indexUninitialised, messageDropsAllowed: true}
}

// Registered reports whether this consumer currently occupies a slot.
func (c *ConsumerState) Registered() bool { return c.index != indexUninitialised }

// Index returns the consumer's slot index, or indexUninitialised if it
// holds no slot.
func (c *ConsumerState) Index() uint8 { return c.index }

// Cursor returns the consumer's local mirror of its consumed position.
func (c *ConsumerState) Cursor() uint64 { return c.cursor }

// DroppingAllowed reports whether this consumer is droppable.
func (c *ConsumerState) DroppingAllowed() bool { return c.messageDropsAllowed }

// DataRangeState returns the consumer's currently claimed, not-yet-drained
// read window.
func (c *ConsumerState) DataRangeState() *DataRange { return &c.dataRange }

// String renders the slot index using the same sentinel-aware formatting
// as the consumer-state debugging helpers this engine is grounded on.
func (c *ConsumerState) String() string {
	if c.index == indexUninitialised {
		return fmt.Sprintf("ConsumerState{index=Uninitialised, cursor=%d, dropping=%t}", c.cursor, c.messageDropsAllowed)
	}
	return fmt.Sprintf("ConsumerState{index=%d, cursor=%d, dropping=%t}", c.index, c.cursor, c.messageDropsAllowed)
}
