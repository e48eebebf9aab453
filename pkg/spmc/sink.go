// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package spmc

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	stderrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agilira/spmcring/internal/config"
	"github.com/agilira/spmcring/internal/shm"
	"github.com/agilira/spmcring/internal/telemetry"
)

// Sink is the consumer-side facade over a Ring: it owns one ConsumerState
// (reliable or droppable), an optional PrefetchCache, and tracks whether
// the record sequence it has observed implies the producer restarted.
type Sink struct {
	ring    *Ring
	segment *shm.Segment
	state   *ConsumerState
	cache   *PrefetchCache

	lastSeq   uint64
	restarted atomic.Bool
	stopFl    atomic.Bool

	logger *zap.Logger
}

// SinkOption configures optional Sink behaviour.
type SinkOption func(*sinkConfig)

type sinkConfig struct {
	logger    *zap.Logger
	prefetch  uint64
	droppable bool
	dir       string
}

func newSinkConfig(opts []SinkOption) sinkConfig {
	cfg := sinkConfig{logger: telemetry.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithSinkLogger attaches a structured logger to the Sink.
func WithSinkLogger(l *zap.Logger) SinkOption {
	return func(c *sinkConfig) { c.logger = l }
}

// WithPrefetch enables a prefetch cache of the given byte capacity. Zero
// (the default) disables the cache: every pop reads directly from ring
// storage.
func WithPrefetch(capacity uint64) SinkOption {
	return func(c *sinkConfig) { c.prefetch = capacity }
}

// WithDroppable opts this Sink out of back-pressure: it holds no slot,
// never slows the producer, and may silently skip records if it falls
// more than the ring's capacity behind.
func WithDroppable() SinkOption {
	return func(c *sinkConfig) { c.droppable = true }
}

// WithSinkSegmentDir overrides the directory a named segment is opened
// from (defaults to shm.DefaultDir, "/dev/shm").
func WithSinkSegmentDir(dir string) SinkOption {
	return func(c *sinkConfig) { c.dir = dir }
}

// WithSinkConfig applies a loaded config.Tunables snapshot. Only
// PrefetchSize has Sink-side meaning: it sets the prefetch cache's byte
// capacity the same way WithPrefetch does. QueueName and Capacity are
// placement-time values read directly by the caller; KeepWarmInterval
// is producer-side (see Source's WithConfig).
func WithSinkConfig(t config.Tunables) SinkOption {
	return func(c *sinkConfig) { c.prefetch = t.PrefetchSize }
}

// NewSink attaches a new consumer to an already-running in-process Ring,
// typically obtained from Source.Ring().
func NewSink(ring *Ring, opts ...SinkOption) (*Sink, error) {
	cfg := newSinkConfig(opts)
	return newSink(ring, nil, cfg)
}

// NewNamedSink attaches to an existing named shared-memory segment
// previously placed by NewNamedSource. capacity must match the value the
// Source was created with: segment layout is fixed at placement time and
// is not self-describing.
func NewNamedSink(queueName string, capacity uint64, opts ...SinkOption) (*Sink, error) {
	cfg := newSinkConfig(opts)

	seg, err := shm.Open(cfg.dir, queueName, shm.Layout{Capacity: capacity, NumSlots: MaxNoDropConsumers})
	if err != nil {
		if stderrors.Is(err, shm.ErrNotFound) {
			return nil, ErrSegmentNotFound
		}
		cfg.logger.Error("spmc: sink segment attach failed",
			zap.String("queue_name", queueName), zap.Uint64("capacity", capacity), zap.Error(err))
		return nil, stderrors.Wrap(ErrObjectInitFailed, err.Error())
	}

	ring := newRing(newShmPlacement(seg), capacity)
	return newSink(ring, seg, cfg)
}

func newSink(ring *Ring, seg *shm.Segment, cfg sinkConfig) (*Sink, error) {
	var state *ConsumerState
	if cfg.droppable {
		state = NewDroppableConsumerState()
	} else {
		state = NewReliableConsumerState()
		if err := ring.RegisterConsumer(state); err != nil {
			cfg.logger.Error("spmc: consumer registration failed", zap.Error(err))
			return nil, err
		}
	}

	return &Sink{
		ring:    ring,
		segment: seg,
		state:   state,
		cache:   NewPrefetchCache(cfg.prefetch),
		logger:  cfg.logger,
	}, nil
}

func (s *Sink) stopped() bool { return s.stopFl.Load() }

// Stop flips the cooperative stop flag observed by Pop's spin loop,
// unregisters the consumer's slot (a no-op for a droppable consumer),
// and releases any attached shared segment. It must be called from the
// Sink's own goroutine.
func (s *Sink) Stop() {
	s.stopFl.Store(true)
	s.ring.UnregisterConsumer(s.state)
	if s.segment != nil {
		if err := s.segment.Close(); err != nil {
			s.logger.Warn("spmc: error closing sink segment", zap.Error(err))
		}
	}
}

// Pop blocks until a record is available, the consumer resynchronises
// after falling too far behind, or the Sink is stopped.
func (s *Sink) Pop(header *Header, payload *[]byte) error {
	for {
		if s.stopped() {
			return ErrStopped
		}
		ok, err := s.ring.pop(s.cache, s.state, header, payload)
		if err != nil {
			s.logger.Warn("spmc: consumer resynchronised, record dropped", zap.Error(err))
			return err
		}
		if ok {
			s.observeSequence(*header)
			return nil
		}
		runtime.Gosched()
	}
}

// PopNonBlocking attempts a single pop without spinning. The bool return
// is false, with a nil error, when no record is currently available. Once
// the Sink is stopped it returns ErrStopped without touching the ring.
func (s *Sink) PopNonBlocking(header *Header, payload *[]byte) (bool, error) {
	if s.stopped() {
		return false, ErrStopped
	}
	ok, err := s.ring.pop(s.cache, s.state, header, payload)
	if err != nil {
		return false, err
	}
	if ok {
		s.observeSequence(*header)
	}
	return ok, nil
}

// observeSequence records the last-seen sequence number and flags a
// producer restart once a non-warmup record's sequence number is
// not strictly greater than the last one seen: a freshly started Source
// always begins counting from 1, so this condition can only arise from
// the producer side having been re-created underneath a still-running
// Sink.
func (s *Sink) observeSequence(h Header) {
	if h.IsWarmup() {
		return
	}
	if h.SeqNum != 0 && h.SeqNum <= s.lastSeq {
		s.restarted.Store(true)
	}
	s.lastSeq = h.SeqNum
}

// ProducerRestarted reports whether this Sink has observed evidence that
// the Source feeding it was stopped and re-created while this Sink kept
// running, per the sequence-number discontinuity documented above.
func (s *Sink) ProducerRestarted() bool { return s.restarted.Load() }

// State exposes the Sink's ConsumerState for diagnostics and tests.
func (s *Sink) State() *ConsumerState { return s.state }

// Backlog returns how many unconsumed bytes were visible to this Sink as
// of its most recent successful Pop, i.e. how far behind the producer it
// was at that moment. It is a diagnostic snapshot, not a live gauge: call
// it again after another Pop to refresh it.
func (s *Sink) Backlog() uint64 { return s.state.DataRangeState().ReadAvailable() }

// PopPOD reads a fixed-size trivially-copyable value pushed with PushPOD.
// It is a free function, like PushPOD, because Go methods cannot carry
// their own type parameters. A ring must not mix PushPOD records with
// Header-framed ones: there is no framing to tell them apart.
func PopPOD[T any](s *Sink) (T, bool, error) {
	var v T
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	ok, err := s.ring.popPOD(s.state, b)
	return v, ok, err
}
