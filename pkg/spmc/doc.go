// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package spmc provides a wait-free, single-producer multiple-consumer
// (SPMC) ring buffer with O(1) framing operations. Push copies into the
// ring without allocating; each record returned by a pop is a freshly
// allocated payload slice.
//
// # Thread-Safety Guarantees
//
//   - Exactly one goroutine (or process) may act as the producer.
//   - Any number of goroutines/processes may act as consumers, each
//     through its own Sink.
//   - A reliable Sink occupies a slot and exerts back-pressure: the
//     producer will not overwrite data it has not yet consumed.
//   - A droppable Sink holds no slot. It never slows the producer and may
//     silently lose records if it falls more than the ring's capacity
//     behind; Pop reports this with ErrResynchronised.
//
// # Usage Example
//
//	src, err := spmc.NewSource(1 << 20)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Stop()
//
//	sink, err := spmc.NewSink(src.Ring())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sink.Stop()
//
//	go func() {
//	    for i := 0; i < 100; i++ {
//	        _ = src.Next([]byte("hello"))
//	    }
//	}()
//
//	var h spmc.Header
//	var payload []byte
//	for i := 0; i < 100; i++ {
//	    if err := sink.Pop(&h, &payload); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Shared Memory
//
// NewNamedSource and NewNamedSink place the ring in a named, file-backed
// shared-memory segment under /dev/shm so independently started processes
// can attach to the same queue. Registration and unregistration are
// guarded by a flock-based inter-process mutex; the data path itself never
// takes a lock.
package spmc
