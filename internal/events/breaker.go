package events

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = errors.New("events: breaker open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker guards the publish path against a down transport: after maxFailures
// consecutive failures it rejects publishes outright for resetTimeout, then
// lets one probe through. A successful probe closes it, a failed one reopens.
type Breaker struct {
	mu           sync.Mutex
	state        breakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time

	// onStateChange is invoked on transitions, for logging.
	onStateChange func(from, to string)
}

// NewBreaker creates a closed breaker.
func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{maxFailures: maxFailures, resetTimeout: resetTimeout}
}

// Do runs fn unless the breaker is open, tracking the outcome.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == breakerOpen {
		if time.Since(b.lastFailure) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.transition(breakerHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == breakerHalfOpen || b.failures >= b.maxFailures {
			b.transition(breakerOpen)
		}
		return err
	}
	if b.state == breakerHalfOpen {
		b.transition(breakerClosed)
	}
	b.failures = 0
	return nil
}

func (b *Breaker) transition(to breakerState) {
	from := b.state
	b.state = to
	if to == breakerClosed {
		b.failures = 0
	}
	if b.onStateChange != nil && from != to {
		b.onStateChange(from.String(), to.String())
	}
}
