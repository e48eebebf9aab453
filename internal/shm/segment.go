// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package shm implements the Placement & Naming contract: it places a
// contiguous byte region plus a handful of small atomic cells at known,
// named offsets inside a file-backed shared-memory segment so that an
// independently started consumer process can attach to the same layout.
//
// Package shm knows nothing about rings, cursors, or records — it hands
// its caller raw byte spans and a registration mutex. The spmc package
// layers cursor and framing semantics on top.
package shm

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const cellSize = 8

// ErrNotFound is returned by Open when the named segment does not exist.
var ErrNotFound = errors.New("shm: segment not found")

// DefaultDir is the directory new segments are placed in when no
// directory is given. /dev/shm is a tmpfs-backed directory on Linux,
// giving shared-memory semantics without a dedicated syscall wrapper for
// shm_open. There is no automatic fallback: on a platform without
// /dev/shm, Create and Open fail unless another directory is passed.
var DefaultDir = "/dev/shm"

// Layout describes the named sub-regions of a segment: the ring bytes
// plus a committed cursor cell and a fixed number of consumer slot cells.
type Layout struct {
	Capacity uint64
	NumSlots int
}

func (l Layout) bookKeeping() int64 {
	// committed cell + one cell per consumer slot + one high-water cell.
	return int64(cellSize * (2 + l.NumSlots))
}

func (l Layout) size() int64 {
	return int64(l.Capacity) + l.bookKeeping()
}

// Segment is a named, file-backed mapping shared between a single
// producer process and any number of consumer processes.
type Segment struct {
	name   string
	file   *os.File
	data   []byte
	layout Layout
	lock   *FlockMutex
}

func segmentPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// Create places a brand-new segment, truncating any previous contents.
// It is called exactly once, by the Source that owns the queue.
func Create(dir, name string, layout Layout) (*Segment, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path := segmentPath(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: create segment %q", name)
	}
	if err := f.Truncate(layout.size()); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "shm: truncate segment %q", name)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(layout.size()),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "shm: mmap segment %q", name)
	}

	lock, err := newFlockMutex(path + ".lock")
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, errors.Wrapf(err, "shm: create registration lock for %q", name)
	}

	seg := &Segment{name: name, file: f, data: data, layout: layout, lock: lock}
	seg.initCells()
	return seg, nil
}

// Open attaches to an existing segment previously placed by Create. It
// does not create or reinitialise any object.
func Open(dir, name string, layout Layout) (*Segment, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path := segmentPath(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "shm: open segment %q", name)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "shm: stat segment %q", name)
	}
	if info.Size() != layout.size() {
		f.Close()
		return nil, errors.Errorf("shm: segment %q has size %d, expected %d", name, info.Size(), layout.size())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(layout.size()),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "shm: mmap segment %q", name)
	}

	lock, err := newFlockMutex(path + ".lock")
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, errors.Wrapf(err, "shm: open registration lock for %q", name)
	}

	return &Segment{name: name, file: f, data: data, layout: layout, lock: lock}, nil
}

// initCells zeroes the committed and high-water cells and marks every
// consumer slot unregistered. Called once, by Create.
func (s *Segment) initCells() {
	for i := 0; i < cellSize; i++ {
		s.CommittedBytes()[i] = 0
		s.HighWaterBytes()[i] = 0
	}
	for i := 0; i < s.layout.NumSlots; i++ {
		slot := s.SlotBytes(i)
		for j := 0; j < cellSize; j++ {
			slot[j] = 0xFF
		}
	}
}

// RingBytes returns the ring's contiguous byte region.
func (s *Segment) RingBytes() []byte {
	return s.data[:s.layout.Capacity]
}

// CommittedBytes returns the 8-byte committed-cursor cell.
func (s *Segment) CommittedBytes() []byte {
	off := s.layout.Capacity
	return s.data[off : off+cellSize]
}

// SlotBytes returns the 8-byte cell for consumer slot i.
func (s *Segment) SlotBytes(i int) []byte {
	off := s.layout.Capacity + cellSize + uint64(i*cellSize)
	return s.data[off : off+cellSize]
}

// HighWaterBytes returns the 8-byte high-water-index cell.
func (s *Segment) HighWaterBytes() []byte {
	off := s.layout.Capacity + cellSize + uint64(s.layout.NumSlots*cellSize)
	return s.data[off : off+cellSize]
}

// Lock returns the registration mutex shared across every attached
// process.
func (s *Segment) Lock() *FlockMutex { return s.lock }

// Capacity returns the ring's byte capacity (excluding book-keeping).
func (s *Segment) Capacity() uint64 { return s.layout.Capacity }

// Name returns the segment's queue name.
func (s *Segment) Name() string { return s.name }

// Close unmaps the segment and releases the backing file descriptor. It
// does not delete the backing file: other attached processes may still
// be using it.
func (s *Segment) Close() error {
	var firstErr error
	if err := unix.Munmap(s.data); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.lock.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Remove deletes the backing file and its lock sidecar. Intended for use
// by the owning Source on a clean shutdown, mirroring the reference
// implementation's separate "remove shared memory" maintenance tool.
func Remove(dir, name string) error {
	if dir == "" {
		dir = DefaultDir
	}
	path := segmentPath(dir, name)
	err1 := os.Remove(path)
	err2 := os.Remove(path + ".lock")
	if err1 != nil && !os.IsNotExist(err1) {
		return err1
	}
	if err2 != nil && !os.IsNotExist(err2) {
		return err2
	}
	return nil
}
