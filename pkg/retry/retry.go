// Package retry re-executes a failing action a bounded number of times with a
// fixed or exponential pause between attempts.
//
// On exhaustion the error from the final attempt is returned exactly as the
// action produced it, so callers can still match on it with errors.Is/As.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// Config controls the number of attempts and the pause between them.
type Config struct {
	MaxAttempts        int  `yaml:"maxAttempts" json:"maxAttempts"`
	IntervalMs         int  `yaml:"intervalMs" json:"intervalMs"`
	ExponentialBackoff bool `yaml:"exponentialBackoff" json:"exponentialBackoff"`
}

// DefaultConfig returns three attempts starting one second apart, doubling.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, IntervalMs: 1000, ExponentialBackoff: true}
}

// Validate reports configs that cannot be executed as written.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("retry maxAttempts must be >= 1, got %d", c.MaxAttempts))
	}
	if c.IntervalMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("retry intervalMs must be >= 0, got %d", c.IntervalMs))
	}
	return nil
}

// Interval returns IntervalMs as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Delay returns the pause before attempt k (1-based). There is no pause
// before the first attempt; before attempt k>1 it is Interval, doubled k-2
// times when exponential.
func (c Config) Delay(k int) time.Duration {
	if k <= 1 {
		return 0
	}
	if !c.ExponentialBackoff {
		return c.Interval()
	}
	return c.Interval() * time.Duration(1<<uint(k-2))
}

func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.IntervalMs < 0 {
		c.IntervalMs = 0
	}
	return c
}

// BackOff returns the pause policy for c: MaxAttempts-1 pauses following
// Delay, then backoff.Stop.
func (c Config) BackOff() backoff.BackOff {
	c = c.normalized()
	var b backoff.BackOff
	if c.ExponentialBackoff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = c.Interval()
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxInterval = time.Duration(math.MaxInt64)
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	} else {
		b = backoff.NewConstantBackOff(c.Interval())
	}
	return backoff.WithMaxRetries(b, uint64(c.MaxAttempts-1))
}

type options struct {
	name   string
	timer  backoff.Timer
	notify backoff.Notify
}

// Option customizes a retry run.
type Option func(*options)

// WithName labels log lines for this run.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithTimer replaces the wall-clock timer used for pauses.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithNotify is called after each failed attempt that will be retried.
func WithNotify(fn func(err error, next time.Duration)) Option {
	return func(o *options) { o.notify = fn }
}

// Permanent marks err as not worth retrying. Do stops and returns err itself.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds or cfg.MaxAttempts is reached.
func Do(ctx context.Context, cfg Config, op func() error, opts ...Option) error {
	_, err := DoValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, op()
	}, opts...)
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, cfg Config, op func() (T, error), opts ...Option) (T, error) {
	o := options{name: "operation"}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.normalized()

	attempt := 0
	counted := func() (T, error) {
		attempt++
		v, err := op()
		if err != nil {
			logger.Debug("%s: attempt %d/%d failed: %v", o.name, attempt, cfg.MaxAttempts, err)
		}
		return v, err
	}

	v, err := backoff.RetryNotifyWithTimerAndData(counted, backoff.WithContext(cfg.BackOff(), ctx), o.notify, o.timer)
	if err != nil && attempt >= cfg.MaxAttempts {
		logger.Warn("%s: %s (%d attempts): %v", o.name, core.ErrRetryExhausted.Message, attempt, err)
	}
	return v, err
}

var errNotMet = errors.New("condition not met")

// Until retries until cond reports true. Exhausting attempts on false returns
// core.ErrConditionNotMet; an error from the last evaluation is returned as is.
func Until(ctx context.Context, cfg Config, cond func() (bool, error), opts ...Option) error {
	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		ok, err := cond()
		if err != nil {
			return err
		}
		if !ok {
			return errNotMet
		}
		return nil
	}, opts...)
	if errors.Is(err, errNotMet) {
		return core.ErrConditionNotMet.
			WithMessage(fmt.Sprintf("condition not met after %d attempts", attempts)).
			WithDetails(map[string]interface{}{"attempts": attempts})
	}
	return err
}
