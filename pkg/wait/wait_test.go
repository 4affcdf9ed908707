package wait

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/devicelab-dev/shop-e2e/pkg/clock"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fakeOpts(timeout, interval time.Duration) (Options, *clock.Fake) {
	fc := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return Options{Timeout: timeout, Interval: interval, What: "element", Clock: fc, Timer: fc}, fc
}

func TestFor_ReturnsOnFirstSuccessWithoutSleeping(t *testing.T) {
	opts, fc := fakeOpts(10*time.Second, 500*time.Millisecond)
	calls := 0

	got, err := For(context.Background(), opts, func() (string, error) {
		calls++
		return "elem-1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "elem-1", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, fc.Sleeps())
}

func TestFor_ErrorsCountAsNotYet(t *testing.T) {
	opts, fc := fakeOpts(10*time.Second, 500*time.Millisecond)
	calls := 0

	got, err := For(context.Background(), opts, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("attempt %d: no such element", calls)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, fc.Sleeps(),
		"sleeps only between failed attempts, none after success")
}

func TestFor_TimeoutCarriesElapsedAndLastError(t *testing.T) {
	opts, fc := fakeOpts(2*time.Second, 500*time.Millisecond)
	calls := 0

	_, err := For(context.Background(), opts, func() (string, error) {
		calls++
		return "", fmt.Errorf("miss %d", calls)
	})

	require.Error(t, err)
	var te *core.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2*time.Second, te.Elapsed)
	assert.EqualError(t, te.LastErr, "miss 5")
	assert.Equal(t, "element", te.What)
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))

	// attempts at 0, 0.5, 1.0, 1.5, 2.0s; no sleep past the deadline
	assert.Equal(t, 5, calls)
	assert.Len(t, fc.Sleeps(), 4)
	assert.LessOrEqual(t, fc.Slept(), 2*time.Second)
}

func TestFor_ZeroTimeoutIsSingleAttempt(t *testing.T) {
	opts, fc := fakeOpts(0, 500*time.Millisecond)
	calls := 0
	boom := errors.New("not displayed")

	_, err := For(context.Background(), opts, func() (bool, error) {
		calls++
		return false, boom
	})

	assert.Equal(t, 1, calls)
	assert.Empty(t, fc.Sleeps())
	assert.True(t, errors.Is(err, boom))
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
}

func TestFor_CanceledContext(t *testing.T) {
	opts, _ := fakeOpts(10*time.Second, 500*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	_, err := For(ctx, opts, func() (int, error) {
		calls++
		return 0, errors.New("not yet")
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestFor_CanceledContextSingleAttempt(t *testing.T) {
	opts, _ := fakeOpts(0, 500*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := For(ctx, opts, func() (int, error) {
		return 0, errors.New("not yet")
	})

	assert.True(t, errors.Is(err, context.Canceled))
	var te *core.TimeoutError
	assert.False(t, errors.As(err, &te))
}

func TestFor_TimeoutNamesConfiguredLimit(t *testing.T) {
	opts, _ := fakeOpts(time.Second, 300*time.Millisecond)

	_, err := For(context.Background(), opts, func() (int, error) {
		return 0, errors.New("no such element")
	})

	var te *core.TimeoutError
	require.True(t, errors.As(err, &te))
	// attempts at 0, 0.3, 0.6, 0.9s; a fifth pause would end past 1s
	assert.Equal(t, 900*time.Millisecond, te.Elapsed)
	assert.Equal(t, time.Second, te.Timeout)
	assert.EqualError(t, err, "timed out after 900ms (timeout 1s) waiting for element: no such element")
}

func TestFor_DefaultInterval(t *testing.T) {
	opts, fc := fakeOpts(time.Second, 0)
	calls := 0

	_, err := For(context.Background(), opts, func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("first miss")
		}
		return 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultInterval}, fc.Sleeps())
}

func TestFor_RealClock(t *testing.T) {
	calls := 0
	start := time.Now()

	err := Until(context.Background(), Options{Timeout: time.Second, Interval: 10 * time.Millisecond}, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestUntil_FalseTimesOut(t *testing.T) {
	opts, _ := fakeOpts(time.Second, 250*time.Millisecond)

	err := Until(context.Background(), opts, func() (bool, error) { return false, nil })

	var te *core.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, te.LastErr, errNotSatisfied)
}

func TestUntil_ErrorThenTrue(t *testing.T) {
	opts, fc := fakeOpts(time.Second, 250*time.Millisecond)
	calls := 0

	err := Until(context.Background(), opts, func() (bool, error) {
		calls++
		switch calls {
		case 1:
			return false, errors.New("stale element")
		case 2:
			return false, nil
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.Len(t, fc.Sleeps(), 2)
}
