// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSource_NanosSinceOrigin_IsNonNegativeAndAdvances(t *testing.T) {
	s := New()
	defer s.Stop()

	first := s.NanosSinceOrigin()
	require.GreaterOrEqual(t, first, int64(0))

	time.Sleep(2 * Resolution)
	second := s.NanosSinceOrigin()
	require.GreaterOrEqual(t, second, first)
}
