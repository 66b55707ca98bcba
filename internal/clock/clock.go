package clock

import "time"

// Clock is the subset of the time package used by the services.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After delivers the current time on the returned channel once d elapses.
	// A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time
	// AfterFunc calls f once d elapses and returns a handle that can cancel it.
	AfterFunc(d time.Duration, f func()) *Timer
	// NewTicker delivers ticks every d. Panics if d is not positive.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable deferred call created by AfterFunc.
type Timer struct {
	// stopFunc cancels the pending call.
	stopFunc func() bool
}

// Stop prevents the timer from firing. It returns false if the timer
// has already fired or was stopped before.
func (t *Timer) Stop() bool {
	return t.stopFunc()
}

// Ticker delivers periodic ticks on C.
// C has capacity 1: ticks are dropped when the reader falls behind.
type Ticker struct {
	// C receives the tick times.
	C <-chan time.Time

	// stopFunc turns the ticker off.
	stopFunc func()
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() {
	t.stopFunc()
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

// realClock delegates to the time package.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)

	return &Timer{stopFunc: timer.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)

	return &Ticker{
		C:        ticker.C,
		stopFunc: ticker.Stop,
	}
}
