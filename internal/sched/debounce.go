package sched

import (
	"sync"
	"time"
)

// Debouncer runs fn once the trigger stream has been quiet for delay.
// Every Trigger cancels the pending run and arms a new one.
type Debouncer struct {
	clock Clock
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer Timer
	due   time.Time
	seq   uint64
}

func NewDebouncer(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = RealClock()
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Trigger (re)arms the task.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	seq := d.seq
	d.due = d.clock.Now().Add(d.delay)
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Cancel drops a pending run. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.timer != nil
	d.stopLocked()
	d.seq++
	return pending
}

// Pending reports whether a run is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Due returns when the armed run fires, or zero.
func (d *Debouncer) Due() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return time.Time{}
	}
	return d.due
}

// Delay returns the quiescence delay.
func (d *Debouncer) Delay() time.Duration { return d.delay }

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.due = time.Time{}
}

// fire runs fn unless the timer was superseded after it started firing.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.due = time.Time{}
	d.mu.Unlock()
	d.fn()
}
