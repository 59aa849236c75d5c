// Package circuit implements a count-based circuit breaker.
//
// The breaker opens after FailureThreshold consecutive failures and closes on
// the first success recorded while open. While open, callers use Allow to let
// a single trial call through per cooldown window.
package circuit

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange reports a transition caused by a Record call.
type StateChange struct {
	Opened bool
	Closed bool
}

type Breaker struct {
	name             string
	failureThreshold int
	cooldown         time.Duration

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	lastTrial time.Time
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCooldown sets how long an open breaker rejects calls before Allow lets a trial call through.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		cooldown:         10 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call should reach the protected dependency.
// A closed breaker always allows; an open one allows one trial per cooldown window.
func (b *Breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	last := b.openedAt
	if b.lastTrial.After(last) {
		last = b.lastTrial
	}
	if now.Sub(last) < b.cooldown {
		return false
	}
	b.lastTrial = now
	return true
}

// RecordFailure registers a failed call. A failure while open restarts the
// cooldown so the next trial waits a full window.
func (b *Breaker) RecordFailure(now time.Time) StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		b.openedAt = now
		return StateChange{}
	}
	b.failures++
	if b.failures < b.failureThreshold {
		return StateChange{}
	}
	b.state = StateOpen
	b.openedAt = now
	b.failures = 0
	return StateChange{Opened: true}
}

// RecordSuccess registers a successful call and closes an open breaker.
// It reports whether the call closed it.
func (b *Breaker) RecordSuccess() StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return StateChange{}
	}
	b.state = StateClosed
	b.lastTrial = time.Time{}
	return StateChange{Closed: true}
}
