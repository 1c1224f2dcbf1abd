package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerFiresAfterLastTrigger(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)
	var fired []time.Time
	d := NewDebouncer(clk, 30*time.Second, func() { fired = append(fired, clk.Now()) })

	for i := 0; i < 4; i++ {
		d.Trigger()
		clk.Advance(5 * time.Second)
	}
	// last trigger at t=15
	require.Equal(t, start.Add(45*time.Second), d.Due())

	clk.Advance(10 * time.Second) // t=30
	require.Empty(t, fired)

	clk.Advance(15 * time.Second) // t=45
	require.Len(t, fired, 1)
	require.Equal(t, start.Add(45*time.Second), fired[0])
	require.False(t, d.Pending())

	clk.Advance(time.Minute)
	require.Len(t, fired, 1)
}

func TestDebouncerCancel(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	calls := 0
	d := NewDebouncer(clk, time.Second, func() { calls++ })

	require.False(t, d.Cancel())
	d.Trigger()
	require.True(t, d.Pending())
	require.True(t, d.Cancel())
	require.False(t, d.Pending())
	require.True(t, d.Due().IsZero())

	clk.Advance(time.Hour)
	require.Zero(t, calls)
	require.Zero(t, clk.Pending())
}

func TestDebouncerIgnoresSupersededFire(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	calls := 0
	d := NewDebouncer(clk, time.Second, func() { calls++ })
	d.Trigger()
	d.mu.Lock()
	seq := d.seq
	d.mu.Unlock()
	d.Trigger()

	// A callback from the first arming that raced past Stop is dropped.
	d.fire(seq)
	require.Zero(t, calls)

	clk.Advance(time.Second)
	require.Equal(t, 1, calls)
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	d := NewDebouncer(nil, 5*time.Millisecond, func() { close(done) })
	d.Trigger()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced task did not run")
	}
}
