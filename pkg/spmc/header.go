// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import (
	"math"
	"unsafe"
)

// Record types. STANDARD carries an application payload; WARMUP is a
// header-only keep-alive record that consumers must filter.
const (
	StandardMessageType uint8 = 0
	WarmupMessageType   uint8 = 1
)

// HeaderVersion is the only wire version currently emitted.
const HeaderVersion uint8 = 1

// DefaultTimestamp is the sentinel stored in Header.Timestamp when the
// producer has not stamped a record with a monotonic clock reading.
const DefaultTimestamp int64 = math.MinInt64

// Header is the bit-exact, fixed-layout record header shared across
// process boundaries. Fields must never be reordered or repacked: other
// processes attach to this layout by raw offset, not by name. Native Go
// alignment places six padding bytes after Type, so the wire footprint
// is 32 bytes.
//
//	offset  size  field
//	0       1     Version
//	1       1     Type
//	2       6     (padding)
//	8       8     Size
//	16      8     SeqNum
//	24      8     Timestamp
type Header struct {
	Version   uint8
	Type      uint8
	Size      uint64
	SeqNum    uint64
	Timestamp int64
}

// headerSize is the on-wire footprint of Header, asserted once at package
// init so a future field addition cannot silently shift the layout.
const headerSize = 32

func init() {
	if unsafe.Sizeof(Header{}) != headerSize {
		panic("spmc: Header size does not match the documented wire layout")
	}
}

// IsWarmup reports whether the header describes a keep-warm record rather
// than application data.
func (h Header) IsWarmup() bool { return h.Type == WarmupMessageType }

// bytes views h as its raw on-wire representation without copying.
func (h *Header) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(h)), headerSize)
}

// headerFromBytes reinterprets a headerSize-byte span as a Header without
// copying. The caller must guarantee b is at least headerSize long and
// stays alive/unmodified for as long as the returned pointer is read.
func headerFromBytes(b []byte) Header {
	return *(*Header)(unsafe.Pointer(&b[0]))
}
