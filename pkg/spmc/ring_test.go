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

func TestRing_RegisterConsumer_AssignsLowestFreeSlot(t *testing.T) {
	r := NewInProcessRing(1024)

	a := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(a))
	require.EqualValues(t, 0, a.Index())

	b := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(b))
	require.EqualValues(t, 1, b.Index())

	r.UnregisterConsumer(a)
	c := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(c))
	require.EqualValues(t, 0, c.Index())
}

func TestRing_RegisterConsumer_TooManyConsumers(t *testing.T) {
	r := NewInProcessRing(1024)

	for i := 0; i < MaxNoDropConsumers; i++ {
		require.NoError(t, r.RegisterConsumer(NewReliableConsumerState()))
	}

	err := r.RegisterConsumer(NewReliableConsumerState())
	require.ErrorIs(t, err, ErrTooManyConsumers)
}

func TestRing_WriteAvailable_NoConsumersIsFullCapacity(t *testing.T) {
	r := NewInProcessRing(256)
	require.EqualValues(t, 256, r.WriteAvailable())
}

func TestRing_WriteAvailable_BackPressureFromSlowestConsumer(t *testing.T) {
	r := NewInProcessRing(256)

	fast := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(fast))
	slow := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(slow))

	require.True(t, r.AcquireSpace(200))
	r.ReleaseSpace()

	fast.cursor = 200
	r.UpdateConsumerState(fast)
	// slow has consumed nothing: only 56 bytes remain writable.
	require.EqualValues(t, 56, r.WriteAvailable())

	require.False(t, r.AcquireSpace(100))
	require.True(t, r.AcquireSpace(56))
	r.ReleaseSpace()
	require.EqualValues(t, 0, r.WriteAvailable())
}

func TestRing_DroppableConsumer_NeverExertsBackPressure(t *testing.T) {
	r := NewInProcessRing(64)
	droppable := NewDroppableConsumerState()

	require.True(t, r.AcquireSpace(64))
	r.ReleaseSpace()
	require.EqualValues(t, 64, r.WriteAvailable())

	require.EqualValues(t, 64, r.ReadAvailable(droppable))
}

func TestRing_UnregisterConsumer_FreesSlotForReuse(t *testing.T) {
	r := NewInProcessRing(64)
	a := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(a))

	r.UnregisterConsumer(a)
	require.False(t, a.Registered())

	// unregistering twice is a safe no-op.
	r.UnregisterConsumer(a)

	b := NewReliableConsumerState()
	require.NoError(t, r.RegisterConsumer(b))
	require.EqualValues(t, 0, b.Index())
}
