// Package clock provides a manual clock for deterministic wait and retry
// tests. A Fake satisfies both backoff.Clock and backoff.Timer: starting the
// timer advances virtual time by the requested duration and fires at once, so
// code under test never really sleeps.
package clock

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	_ backoff.Clock = (*Fake)(nil)
	_ backoff.Timer = (*Fake)(nil)
)

// Fake is a virtual clock that records every sleep requested through it.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	c      chan time.Time
}

// NewFake returns a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, c: make(chan time.Time, 1)}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves virtual time forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Start records d as a sleep, advances time and fires the timer channel.
func (f *Fake) Start(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.sleeps = append(f.sleeps, d)
	now := f.now
	f.mu.Unlock()

	// Drop a stale tick so the channel never blocks.
	select {
	case <-f.c:
	default:
	}
	f.c <- now
}

// Stop is a no-op; fired ticks are drained on the next Start.
func (f *Fake) Stop() {}

// C returns the timer channel.
func (f *Fake) C() <-chan time.Time {
	return f.c
}

// Sleeps returns a copy of all recorded sleeps in order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}

// Slept returns the total recorded sleep time.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.sleeps {
		total += d
	}
	return total
}
