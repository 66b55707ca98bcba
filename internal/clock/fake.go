package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock: time moves only when Advance is called.
// It is safe for concurrent use.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline order,
// so they must not call Advance themselves.
type FakeClock struct {
	// mu guards every field below.
	mu sync.Mutex
	// current is the fake "now".
	current time.Time
	// waiters are the pending timers and tickers.
	waiters []*waiter
	// changed is broadcast whenever a waiter is registered.
	changed *sync.Cond
}

// waiter is a pending After, AfterFunc or ticker registration.
type waiter struct {
	// deadline is when the waiter fires next.
	deadline time.Time
	// channel receives the fire time (After and tickers).
	channel chan time.Time
	// callback is invoked on fire (AfterFunc).
	callback func()
	// interval is non-zero for tickers.
	interval time.Duration
	// stopped marks waiters cancelled through Stop.
	stopped bool
	// fired marks one-shot waiters that already fired.
	fired bool
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{
		current: initial,
	}

	c.changed = sync.NewCond(&c.mu)

	return c
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// After returns a channel that receives once the clock passes now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}

	c.register(&waiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})

	return channel
}

// AfterFunc schedules f for now+d. A non-positive d calls f before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()

		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := &waiter{
		deadline: c.current.Add(d),
		callback: f,
	}

	c.register(w)

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()

			if w.stopped || w.fired {
				return false
			}

			w.stopped = true

			return true
		},
	}
}

// NewTicker returns a ticker firing every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	w := &waiter{
		deadline: c.current.Add(d),
		channel:  channel,
		interval: d,
	}

	c.register(w)

	return &Ticker{
		C: channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			w.stopped = true
		},
	}
}

// Advance moves the clock forward by d and fires every waiter whose deadline
// is reached, in deadline order. A ticker spanning several intervals fires
// once per interval; ticks that do not fit in its buffer are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.collectDue(target)
		if len(due) == 0 {
			return
		}

		sort.SliceStable(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})

		for _, w := range due {
			if w.callback != nil {
				w.callback()
				continue
			}

			select {
			case w.channel <- target:
			default:
			}
		}
	}
}

// WaitForTimers blocks until at least n waiters are pending. It closes the
// race between a goroutine registering a timer and the test advancing time.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of active waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pendingLocked()
}

// register adds w and wakes WaitForTimers callers. Requires c.mu.
func (c *FakeClock) register(w *waiter) {
	c.waiters = append(c.waiters, w)
	c.changed.Broadcast()
}

// collectDue removes due waiters from the pending list, reschedules tickers
// and returns what should fire.
func (c *FakeClock) collectDue(target time.Time) []*waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		due       []*waiter
		remaining []*waiter
	)

	for _, w := range c.waiters {
		switch {
		case w.stopped:
			continue
		case !w.deadline.After(target):
			due = append(due, w)
		default:
			remaining = append(remaining, w)
		}
	}

	// Snapshot deadlines before tickers are rescheduled so firing order is stable.
	fired := make([]*waiter, 0, len(due))

	for _, w := range due {
		snapshot := *w
		fired = append(fired, &snapshot)

		if w.interval > 0 {
			w.deadline = w.deadline.Add(w.interval)
			remaining = append(remaining, w)

			continue
		}

		w.fired = true
	}

	c.waiters = remaining

	return fired
}

// pendingLocked counts active waiters. Requires c.mu.
func (c *FakeClock) pendingLocked() int {
	count := 0

	for _, w := range c.waiters {
		if !w.stopped {
			count++
		}
	}

	return count
}
