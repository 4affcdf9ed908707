// Package wait polls a predicate until it succeeds or a timeout elapses.
//
// A predicate error means "not yet"; it is remembered and surfaced inside the
// timeout error if the deadline passes. Sleeping is done with a timer, never
// by spinning, and a sleep that would overrun the deadline is not started.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 500 * time.Millisecond

var errNotSatisfied = errors.New("condition not satisfied")

// Options configures a wait.
type Options struct {
	Timeout  time.Duration // <= 0 means a single attempt
	Interval time.Duration // pause between attempts
	What     string        // description used in the timeout error

	// Clock and Timer default to the wall clock. Tests pass a clock.Fake.
	Clock backoff.Clock
	Timer backoff.Timer
}

func (o Options) clock() backoff.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return backoff.SystemClock
}

func (o Options) interval() time.Duration {
	if o.Interval > 0 {
		return o.Interval
	}
	return DefaultInterval
}

func (o Options) what() string {
	if o.What != "" {
		return o.What
	}
	return "condition"
}

// deadlineBackOff pauses a constant interval and stops as soon as another
// pause would carry the wait past its timeout.
type deadlineBackOff struct {
	interval time.Duration
	timeout  time.Duration
	clock    backoff.Clock
	start    time.Time
}

func (o Options) policy() *deadlineBackOff {
	b := &deadlineBackOff{interval: o.interval(), timeout: o.Timeout, clock: o.clock()}
	b.Reset()
	return b
}

func (b *deadlineBackOff) Reset() {
	b.start = b.clock.Now()
}

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.clock.Now().Sub(b.start)+b.interval > b.timeout {
		return backoff.Stop
	}
	return b.interval
}

// For runs fn until it returns a nil error and hands back its value. On
// timeout it returns a *core.TimeoutError carrying the elapsed time and the
// last error fn returned. Context cancellation returns the context error.
func For[T any](ctx context.Context, opts Options, fn func() (T, error)) (T, error) {
	clk := opts.clock()
	start := clk.Now()

	var lastErr error
	op := func() (T, error) {
		v, err := fn()
		if err != nil {
			lastErr = err
		}
		return v, err
	}

	var (
		v   T
		err error
	)
	if opts.Timeout <= 0 {
		v, err = op()
	} else {
		v, err = backoff.RetryNotifyWithTimerAndData(op, backoff.WithContext(opts.policy(), ctx), nil, opts.Timer)
	}
	if err == nil {
		return v, nil
	}
	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	return zero, &core.TimeoutError{
		What:    opts.what(),
		Timeout: max(opts.Timeout, 0),
		Elapsed: clk.Now().Sub(start),
		LastErr: lastErr,
	}
}

// Until waits for cond to report true. An error from cond counts as false
// and is kept as the last error.
func Until(ctx context.Context, opts Options, cond func() (bool, error)) error {
	_, err := For(ctx, opts, func() (struct{}, error) {
		ok, err := cond()
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, errNotSatisfied
		}
		return struct{}{}, nil
	})
	return err
}
