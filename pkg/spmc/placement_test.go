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

func TestCursorCell_LoadStore(t *testing.T) {
	c := newHeapCursor()
	c.Store(42)
	require.EqualValues(t, 42, c.Load())
}

func TestCursorCell_CompareAndSwap(t *testing.T) {
	c := newHeapCursor()
	c.Store(10)

	require.False(t, c.CompareAndSwap(99, 1))
	require.True(t, c.CompareAndSwap(10, 20))
	require.EqualValues(t, 20, c.Load())
}

func TestCursorAt_ViewsBytesInPlace(t *testing.T) {
	b := make([]byte, 8)
	c := cursorAt(b)
	c.Store(0x1122334455667788)

	c2 := cursorAt(b)
	require.Equal(t, uint64(0x1122334455667788), c2.Load())
}

func TestHeapPlacement_SlotsStartUninitialised(t *testing.T) {
	p := newHeapPlacement(1024)
	for i := 0; i < MaxNoDropConsumers; i++ {
		require.Equal(t, slotUninitialised, p.Slot(i).Load())
	}
}
