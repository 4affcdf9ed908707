package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_StartAdvancesAndFires(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	f.Start(100 * time.Millisecond)
	select {
	case tick := <-f.C():
		assert.Equal(t, start.Add(100*time.Millisecond), tick)
	default:
		t.Fatal("timer did not fire")
	}

	f.Start(200 * time.Millisecond)
	f.Start(50 * time.Millisecond) // replaces the unread tick
	assert.Equal(t, start.Add(350*time.Millisecond), <-f.C())

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 50 * time.Millisecond}, f.Sleeps())
	assert.Equal(t, 350*time.Millisecond, f.Slept())
	assert.Equal(t, start.Add(350*time.Millisecond), f.Now())
}

func TestFake_AdvanceIsNotASleep(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	f.Advance(time.Second)

	assert.Equal(t, time.Unix(1, 0), f.Now())
	assert.Empty(t, f.Sleeps())
}
