// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import "github.com/pkg/errors"

// Sentinel error kinds surfaced by the core. ErrObjectInitFailed is wrapped
// with errors.Wrap at its point of origin so callers retain both errors.Is
// matching and a stack trace; every other kind, including
// ErrSegmentNotFound and ErrTooManyConsumers, is returned bare.
var (
	// ErrTooManyConsumers is returned by RegisterConsumer when the slot
	// table is already full. Fatal to the Sink attempting registration;
	// does not affect already-registered readers.
	ErrTooManyConsumers = errors.New("spmc: too many reliable consumers registered")

	// ErrSegmentNotFound is returned when a Sink attaches to a named
	// shared-memory segment that does not exist. The caller may retry.
	ErrSegmentNotFound = errors.New("spmc: shared memory segment not found")

	// ErrObjectInitFailed is returned when the ring, committed cursor, or
	// slot table could not be placed in shared memory.
	ErrObjectInitFailed = errors.New("spmc: shared object initialisation failed")

	// ErrResynchronised is returned by a droppable consumer's pop when it
	// has fallen more than capacity behind. The in-flight record was
	// discarded and reading resumes from the current committed cursor.
	ErrResynchronised = errors.New("spmc: consumer resynchronised, record dropped")

	// ErrStopped is returned by a spinning push or pop when the caller
	// flipped the Source's or Sink's stop flag.
	ErrStopped = errors.New("spmc: operation aborted by stop")

	// ErrRecordTooLarge is returned when a single push cannot ever fit in
	// the ring regardless of current occupancy.
	ErrRecordTooLarge = errors.New("spmc: record exceeds ring capacity")
)
