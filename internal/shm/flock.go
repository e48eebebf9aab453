// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shm

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FlockMutex is an inter-process mutex backed by an advisory BSD lock on
// a side-car file. It guards consumer registration/unregistration only;
// it is never taken on the producer's or a consumer's hot path.
type FlockMutex struct {
	file *os.File
}

func newFlockMutex(path string) (*FlockMutex, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: open lock file %q", path)
	}
	return &FlockMutex{file: f}, nil
}

// Lock blocks until the exclusive advisory lock is held. It satisfies
// sync.Locker; a failure here indicates the lock file descriptor was
// closed concurrently, which is a programming error, so it panics rather
// than returning an error a caller would have no sane way to act on.
func (m *FlockMutex) Lock() {
	if err := unix.Flock(int(m.file.Fd()), unix.LOCK_EX); err != nil {
		panic(errors.Wrap(err, "shm: flock acquire failed"))
	}
}

// Unlock releases the advisory lock.
func (m *FlockMutex) Unlock() {
	if err := unix.Flock(int(m.file.Fd()), unix.LOCK_UN); err != nil {
		panic(errors.Wrap(err, "shm: flock release failed"))
	}
}

// Close releases the underlying file descriptor.
func (m *FlockMutex) Close() error {
	return m.file.Close()
}
