package events

import (
	"sync"

	"signal-systemv1/internal/model"
)

// SignalRing is a bounded in-memory ring of the most recent signals. When the
// ring is full the oldest signal is overwritten. Capacity is rounded up to the
// next power of two for fast bitwise modulo.
type SignalRing struct {
	mu      sync.RWMutex
	buf     []model.Signal
	mask    uint64
	head    uint64 // next write position, monotonically increasing
	evicted uint64
}

// NewSignalRing creates a ring with at least the given capacity.
func NewSignalRing(capacity int) *SignalRing {
	c := nextPow2(capacity)
	if c < 2 {
		c = 2
	}
	return &SignalRing{
		buf:  make([]model.Signal, c),
		mask: uint64(c - 1),
	}
}

// Push appends a signal, overwriting the oldest entry when full.
func (r *SignalRing) Push(s model.Signal) {
	r.mu.Lock()
	if r.head >= uint64(len(r.buf)) {
		r.evicted++
	}
	r.buf[r.head&r.mask] = s
	r.head++
	r.mu.Unlock()
}

// Len returns the number of signals currently held.
func (r *SignalRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.head > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(r.head)
}

// Cap returns the ring capacity.
func (r *SignalRing) Cap() int { return len(r.buf) }

// Evicted returns how many signals have been overwritten.
func (r *SignalRing) Evicted() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}

// Recent returns up to n signals, newest first.
func (r *SignalRing) Recent(n int) []model.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	held := int(r.head)
	if held > len(r.buf) {
		held = len(r.buf)
	}
	if n > held {
		n = held
	}
	out := make([]model.Signal, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(r.head-1-uint64(i))&r.mask])
	}
	return out
}

// RingSink is a Sink that stores trade signals in a SignalRing. Non-signal
// events (crossover visualizations) pass through untouched.
type RingSink struct {
	Ring *SignalRing

	// OnEvict is called once per overwritten signal. Optional.
	OnEvict func()
}

func (s *RingSink) Emit(event string, payload any) {
	if event != EventSignal {
		return
	}
	sig, ok := payload.(model.Signal)
	if !ok {
		return
	}
	before := s.Ring.Evicted()
	s.Ring.Push(sig)
	if s.OnEvict != nil && s.Ring.Evicted() > before {
		s.OnEvict()
	}
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
