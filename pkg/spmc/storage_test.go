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

func TestStorage_WriteReadAt_NoWrap(t *testing.T) {
	s := newStorage(make([]byte, 16))
	s.writeAt(0, []byte("hello"))

	got := make([]byte, 5)
	s.readAt(0, got)
	require.Equal(t, []byte("hello"), got)
}

func TestStorage_WriteReadAt_WrapsAroundEnd(t *testing.T) {
	s := newStorage(make([]byte, 8))
	s.writeAt(6, []byte("abcdef"))

	got := make([]byte, 6)
	s.readAt(6, got)
	require.Equal(t, []byte("abcdef"), got)
}

func TestStorage_WriteAt_OffsetWrapsModuloCapacity(t *testing.T) {
	s := newStorage(make([]byte, 8))
	s.writeAt(16, []byte("xy")) // offset 16 mod 8 == 0

	got := make([]byte, 2)
	s.readAt(0, got)
	require.Equal(t, []byte("xy"), got)
}

func TestAdvance_ReturnsCursorPlusN(t *testing.T) {
	require.EqualValues(t, 15, advance(10, 5))
}
