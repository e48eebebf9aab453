// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeader_BytesRoundTrip(t *testing.T) {
	h := Header{Version: HeaderVersion, Type: StandardMessageType, Size: 128, SeqNum: 7, Timestamp: 1234}
	b := h.bytes()
	require.Len(t, b, headerSize)

	got := headerFromBytes(b)
	require.Equal(t, h, got)
}

func TestHeader_IsWarmup(t *testing.T) {
	require.True(t, Header{Type: WarmupMessageType}.IsWarmup())
	require.False(t, Header{Type: StandardMessageType}.IsWarmup())
}

func TestHeader_FrameBytesAliasesUnderlyingStruct(t *testing.T) {
	h := Header{Version: HeaderVersion, SeqNum: 99}
	b := h.frameBytes()
	got := headerFromBytes(b)
	require.Equal(t, uint64(99), got.SeqNum)
}
