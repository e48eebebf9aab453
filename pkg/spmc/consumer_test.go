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

func TestConsumerState_NewReliable_StartsUnregistered(t *testing.T) {
	c := NewReliableConsumerState()
	require.False(t, c.Registered())
	require.False(t, c.DroppingAllowed())
}

func TestConsumerState_NewDroppable_NeverRegisters(t *testing.T) {
	c := NewDroppableConsumerState()
	require.False(t, c.Registered())
	require.True(t, c.DroppingAllowed())
}

func TestConsumerState_String_SentinelAwareBeforeRegistration(t *testing.T) {
	c := NewReliableConsumerState()
	require.Contains(t, c.String(), "Uninitialised")
}

func TestConsumerState_String_ShowsIndexAfterRegistration(t *testing.T) {
	ring := NewInProcessRing(1024)
	c := NewReliableConsumerState()
	require.NoError(t, ring.RegisterConsumer(c))
	require.Contains(t, c.String(), "index=0")
}

func TestDataRange_AdvanceTracksConsumedBytes(t *testing.T) {
	var r DataRange
	r.SetReadAvailable(10)
	require.False(t, r.Empty())

	r.Advance(4)
	require.EqualValues(t, 4, r.Consumed())
	require.EqualValues(t, 6, r.ReadAvailable())

	r.Advance(6)
	require.True(t, r.Empty())
}
