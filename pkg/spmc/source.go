// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import (
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agilira/spmcring/internal/clock"
	"github.com/agilira/spmcring/internal/config"
	"github.com/agilira/spmcring/internal/shm"
	"github.com/agilira/spmcring/internal/telemetry"
)

// Source is the producer-side facade: it builds a Header carrying the
// next monotonically increasing sequence number and the current
// monotonic timestamp, then spins on push until it succeeds or the
// Source is stopped.
type Source struct {
	ring    *Ring
	segment *shm.Segment

	seq    uint64
	stopFl atomic.Bool

	clk    *clock.Source
	logger *zap.Logger
}

// SourceOption configures optional Source behaviour.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	logger           *zap.Logger
	dir              string
	keepWarmInterval time.Duration
}

func newSourceConfig(opts []SourceOption) sourceConfig {
	cfg := sourceConfig{logger: telemetry.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger attaches a structured logger to the Source.
func WithLogger(l *zap.Logger) SourceOption {
	return func(c *sourceConfig) { c.logger = l }
}

// WithSegmentDir overrides the directory a named segment is placed in
// (defaults to shm.DefaultDir, "/dev/shm").
func WithSegmentDir(dir string) SourceOption {
	return func(c *sourceConfig) { c.dir = dir }
}

// WithConfig applies a loaded config.Tunables snapshot. Only
// KeepWarmInterval has Source-side meaning: when non-zero, the Source
// runs its own background NextKeepWarm loop on that interval instead of
// leaving keep-warm pushes to the caller. QueueName and Capacity are
// placement-time values read directly by the caller, not by this
// option; PrefetchSize is consumer-side (see WithSinkConfig).
func WithConfig(t config.Tunables) SourceOption {
	return func(c *sourceConfig) { c.keepWarmInterval = t.KeepWarmInterval }
}

// NewSource creates a Source usable by a single producer goroutine and
// any number of consumer goroutines within this process.
func NewSource(capacity uint64, opts ...SourceOption) (*Source, error) {
	cfg := newSourceConfig(opts)
	ring := NewInProcessRing(capacity)
	return newSource(ring, nil, cfg), nil
}

// NewNamedSource creates (or re-creates) a named shared-memory segment
// and constructs a Source over it so that independently started consumer
// processes can attach via NewNamedSink.
func NewNamedSource(queueName string, capacity uint64, opts ...SourceOption) (*Source, error) {
	cfg := newSourceConfig(opts)

	seg, err := shm.Create(cfg.dir, queueName, shm.Layout{Capacity: capacity, NumSlots: MaxNoDropConsumers})
	if err != nil {
		cfg.logger.Error("spmc: source segment placement failed",
			zap.String("queue_name", queueName), zap.Uint64("capacity", capacity), zap.Error(err))
		return nil, errors.Wrap(ErrObjectInitFailed, err.Error())
	}

	ring := newRing(newShmPlacement(seg), capacity)
	src := newSource(ring, seg, cfg)
	return src, nil
}

func newSource(ring *Ring, seg *shm.Segment, cfg sourceConfig) *Source {
	s := &Source{
		ring:    ring,
		segment: seg,
		clk:     clock.New(),
		logger:  cfg.logger,
	}
	if cfg.keepWarmInterval > 0 {
		go s.runKeepWarm(cfg.keepWarmInterval)
	}
	return s
}

// runKeepWarm drives NextKeepWarm on a fixed tick until Stop, letting a
// caller opt into automatic keep-warm traffic via WithConfig instead of
// calling NextKeepWarm itself from its own idle-detection logic.
func (s *Source) runKeepWarm(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !s.stopped() {
		<-ticker.C
		if s.stopped() {
			return
		}
		s.NextKeepWarm()
	}
}

func (s *Source) stopped() bool { return s.stopFl.Load() }

// Stop flips the cooperative stop flag observed by Next's spin loop and
// releases the Source's own resources (clock goroutine, shared segment).
// It does not touch any consumer's registration: consumers unregister
// themselves from their own context.
func (s *Source) Stop() {
	s.stopFl.Store(true)
	s.clk.Stop()
	if s.segment != nil {
		if err := s.segment.Close(); err != nil {
			s.logger.Warn("spmc: error closing source segment", zap.Error(err))
		}
	}
}

// Push makes a single, non-blocking attempt to publish header and payload
// as one atomic record. It returns false if insufficient space is
// currently available; the caller decides whether and how to retry. Next
// is the common case built on top of this.
func (s *Source) Push(header Header, payload []byte) bool {
	return s.ring.pushHeaderPayload(header, payload)
}

// Next blocks, spinning against back-pressure, until payload has been
// published as a STANDARD record or the Source is stopped. A record
// larger than the ring can ever hold fails deterministically instead of
// spinning forever.
func (s *Source) Next(payload []byte) error {
	total := headerSize + uint64(len(payload))
	if total > s.ring.Capacity() {
		return ErrRecordTooLarge
	}

	seq := atomic.AddUint64(&s.seq, 1)
	h := Header{
		Version:   HeaderVersion,
		Type:      StandardMessageType,
		Size:      uint64(len(payload)),
		SeqNum:    seq,
		Timestamp: s.clk.NanosSinceOrigin(),
	}

	for {
		if s.stopped() {
			return ErrStopped
		}
		if s.Push(h, payload) {
			return nil
		}
		runtime.Gosched()
	}
}

// NextKeepWarm pushes a header-only WARMUP record to keep L1/L2 caches
// hot while the application is otherwise quiescent. It is a single
// best-effort attempt, not a blocking push: a keep-warm record skipped
// because the ring happens to be full has no observable consequence.
func (s *Source) NextKeepWarm() {
	h := Header{
		Version:   HeaderVersion,
		Type:      WarmupMessageType,
		Size:      0,
		SeqNum:    0,
		Timestamp: DefaultTimestamp,
	}
	s.ring.pushHeaderPayload(h, nil)
}

// PushPOD serialises a fixed-size trivially-copyable value directly into
// the ring as a single framed item, acquiring and releasing its own
// space. It is a free function rather than a method because Go methods
// cannot carry their own type parameters.
func PushPOD[T any](s *Source, v T) bool {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	return s.ring.pushItems(AcquireReleaseYes, rawBytes(b))
}

// ring exposes the underlying Ring for in-process Sinks constructed
// directly against a running Source (SPMCSinkThread in the reference
// design note's terms).
func (s *Source) Ring() *Ring { return s.ring }
