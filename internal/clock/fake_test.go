package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeTimerFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)

	timer := c.NewTimer(30 * time.Second)
	assert.Equal(t, 1, c.ActiveTimers())

	c.Advance(29 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-timer.C():
		assert.Equal(t, start.Add(30*time.Second), at)
	default:
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, c.ActiveTimers())
}

func TestFakeTimerStopAndReset(t *testing.T) {
	c := NewFake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	timer := c.NewTimer(time.Minute)
	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	c.Advance(2 * time.Minute)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}

	assert.False(t, timer.Reset(10*time.Second))
	c.Advance(10 * time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("reset timer did not fire")
	}
}

func TestFakeTimerZeroDurationFiresImmediately(t *testing.T) {
	c := NewFake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	timer := c.NewTimer(0)
	select {
	case <-timer.C():
	default:
		t.Fatal("zero timer did not fire")
	}
}
